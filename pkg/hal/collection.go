package hal

import "fmt"

// Collection defaults.
const (
	DefaultCollectionName = "items"
	DefaultIdentifierName = "id"
	DefaultPageSize       = 30
)

// Collection wraps a set of items, either a fixed slice or a Paginator,
// together with the routes used to link the collection and its items.
type Collection struct {
	items     []any
	paginator Paginator
	page      int
	pageSize  int

	// CollectionName is the _embedded key holding the rendered items.
	CollectionName string

	// CollectionRoute names the route used for self and pagination links.
	CollectionRoute        string
	CollectionRouteParams  map[string]any
	CollectionRouteOptions map[string]any

	// ResourceRoute names the route used for each item's self link.
	ResourceRoute        string
	ResourceRouteParams  map[string]any
	ResourceRouteOptions map[string]any

	// IdentifierName is the item field holding the identifier.
	IdentifierName string

	// Attributes are merged into the top level of the rendered document.
	Attributes map[string]any

	links *LinkCollection
}

// NewCollection wraps a fixed list of items.
func NewCollection(items []any) *Collection {
	c := newCollection()
	c.items = items
	return c
}

// NewPaginatedCollection wraps a paginated source. Rendering it adds
// self/first/last/prev/next links.
func NewPaginatedCollection(p Paginator) *Collection {
	c := newCollection()
	c.paginator = p
	return c
}

// Items converts a typed slice into the []any a Collection holds.
func Items[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func newCollection() *Collection {
	return &Collection{
		page:           1,
		pageSize:       DefaultPageSize,
		CollectionName: DefaultCollectionName,
		IdentifierName: DefaultIdentifierName,
		links:          NewLinkCollection(),
	}
}

// Items returns the fixed items, or nil for a paginated collection.
func (c *Collection) Items() []any { return c.items }

// Paginator returns the paginated source, or nil.
func (c *Collection) Paginator() Paginator { return c.paginator }

// IsPaginated reports whether the collection wraps a Paginator.
func (c *Collection) IsPaginated() bool { return c.paginator != nil }

// Page returns the current page number (1-based).
func (c *Collection) Page() int { return c.page }

// SetPage sets the current page. Pages start at 1; a page outside the
// source's range is not rejected here but renders as a 409 problem.
func (c *Collection) SetPage(page int) {
	c.page = page
}

// PageSize returns the number of items per page.
func (c *Collection) PageSize() int { return c.pageSize }

// SetPageSize sets the number of items per page.
func (c *Collection) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("%w: page size must be at least 1, got %d", ErrInvalidArgument, size)
	}
	c.pageSize = size
	return nil
}

// Links returns the collection's link collection.
func (c *Collection) Links() *LinkCollection {
	if c.links == nil {
		c.links = NewLinkCollection()
	}
	return c.links
}

func (c *Collection) identifierName() string {
	if c.IdentifierName == "" {
		return DefaultIdentifierName
	}
	return c.IdentifierName
}

func (c *Collection) collectionName() string {
	if c.CollectionName == "" {
		return DefaultCollectionName
	}
	return c.CollectionName
}

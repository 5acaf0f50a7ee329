package hal

// Resource wraps a single item with its identifier and links.
//
// Data is either a map[string]any or an arbitrary object; objects are
// converted to maps at render time through the hydrator chain.
type Resource struct {
	Data  any
	ID    any
	links *LinkCollection
}

// NewResource wraps data with an identifier.
func NewResource(data any, id any) *Resource {
	return &Resource{
		Data:  data,
		ID:    id,
		links: NewLinkCollection(),
	}
}

// Links returns the resource's link collection.
func (r *Resource) Links() *LinkCollection {
	if r.links == nil {
		r.links = NewLinkCollection()
	}
	return r.links
}

// LinkCollectionAware is implemented by values that carry their own links.
type LinkCollectionAware interface {
	Links() *LinkCollection
}

var (
	_ LinkCollectionAware = (*Resource)(nil)
	_ LinkCollectionAware = (*Collection)(nil)
)

package hal

import "context"

// Paginator is a paged item source. Implementations may hit a database,
// so both calls take a context.
type Paginator interface {
	// PageCount returns the number of pages for the given page size.
	// Zero means the source is empty.
	PageCount(ctx context.Context, pageSize int) (int, error)

	// PageItems returns the items on a 1-based page. Out-of-range pages
	// return no items.
	PageItems(ctx context.Context, page, pageSize int) ([]any, error)
}

// ItemLister is implemented by domain collection types registered in the
// metadata map as collections.
type ItemLister interface {
	Items() []any
}

// SlicePaginator pages over an in-memory slice.
type SlicePaginator []any

// PageCount implements Paginator.
func (p SlicePaginator) PageCount(_ context.Context, pageSize int) (int, error) {
	if pageSize < 1 {
		pageSize = 1
	}
	return (len(p) + pageSize - 1) / pageSize, nil
}

// PageItems implements Paginator.
func (p SlicePaginator) PageItems(_ context.Context, page, pageSize int) ([]any, error) {
	if page < 1 || pageSize < 1 {
		return nil, nil
	}
	start := (page - 1) * pageSize
	if start >= len(p) {
		return nil, nil
	}
	end := min(start+pageSize, len(p))
	return p[start:end:end], nil
}

package pager

import (
	"context"
)

// Page is one batch of items returned by a single fetch call.
type Page[T any] struct {
	// Items holds the page contents in server order.
	Items []T

	// TotalCount is the authoritative total item count across all pages
	// as reported by the source, or a negative value when the source does
	// not report one.
	TotalCount int
}

// Source is the injected dependency that retrieves a single page.
// Implementations must be safe to call repeatedly with increasing page
// indices; the controller never calls FetchPage concurrently with itself.
type Source[T any] interface {
	// FetchPage fetches the page with the given zero-based index.
	FetchPage(ctx context.Context, page int) (Page[T], error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// FetchPage calls f.
func (f SourceFunc[T]) FetchPage(ctx context.Context, page int) (Page[T], error) {
	return f(ctx, page)
}

// Package pager implements an incremental pagination controller.
//
// A Controller loads pages of items from an injected Source, accumulates
// them in fetch order, and detects when the last page has been retrieved:
// either because the source reported a total item count that has been
// reached, or because a page came back empty. Consumers observe the
// published state (items, total count, current page, loading flag, end
// flag) through change-only subscriptions and trigger loads from whatever
// layer renders the items (typically when a trailing sentinel element
// becomes visible).
//
// Example usage:
//
//	src := pager.SourceFunc[Order](func(ctx context.Context, page int) (pager.Page[Order], error) {
//		return fetchOrders(ctx, page)
//	})
//	ctrl, err := pager.New[Order](src, pager.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	if err := ctrl.Reload(ctx); err != nil {
//		return err
//	}
//	for !ctrl.HasReachedEnd() {
//		if err := ctrl.LoadNextPage(ctx); err != nil {
//			return err
//		}
//	}
//
// The controller:
//   - Serializes all state mutation behind a single mutex, never held
//     across the fetch call
//   - Treats a load call after the end as a silent no-op
//   - Leaves state untouched when a fetch fails (no partial append, no
//     page advance)
//   - Makes a second concurrent LoadNextPage a no-op while a fetch is in
//     flight
//   - Discards the result of a fetch that was superseded by Reload
//
// Retry policy, page caching, and prefetching are deliberately out of
// scope; the injected Source owns everything about how a page is actually
// retrieved.
package pager

// Package pagecache is a keyed TTL cache with coalesced fetch.
//
// It bounds redundant work against a slow or rate-limited backend while
// keeping displayed data acceptably fresh:
//
//   - a fresh cached value is returned without calling the backend;
//   - concurrent misses for the same key share one backend call;
//   - rapid repeated requests for a key are debounced so only the latest
//     fetcher runs;
//   - a background sweep removes expired entries.
//
// Components:
//   - store.Store: keyed TTL store, optionally codec-encoded and backed by a
//     provider (e.g. BigCache).
//   - coalesce.Group: per-key single-flight with debounce.
//   - Controller: composes both and owns the sweep loop.
//
// Keys are any comparable type. PageKey covers paged listings, where Scope
// joins the filter dimensions (tab, search, page size) without collisions:
//
//	c, _ := pagecache.New[pagecache.PageKey, pagecache.Page[Complaint]](pagecache.Options[...]{})
//	defer c.Close(ctx)
//
//	key := pagecache.PageKey{Scope: pagecache.Scope("Pending", q), Page: 1}
//	page, err := c.Fetch(ctx, key, func(ctx context.Context) (pagecache.Page[Complaint], error) {
//	    return api.List(ctx, "Pending", q, 1)
//	})
//
// After a mutation, drop what it made stale. An invalidation issued while a
// fetch for the same key is in flight wins; that fetch's result is returned
// to its callers but not cached:
//
//	c.InvalidateFunc(pagecache.ScopePrefix("Pending"))
package pagecache

package pagecache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The controller calls them on hot paths; key is the cache key as passed to Fetch.
type Hooks interface {
	// Fresh value served from the store.
	Hit(key any)
	// No fresh value; the fetch goes through the coalescer.
	Miss(key any)

	// Caller joined a fetch already in flight.
	Coalesced(key any)
	// A pending debounced fetcher was replaced by a later call's fetcher.
	Superseded(key any)

	// Fetcher returned an error or panicked (err then matches ErrPanic).
	// Called once per execution, not per waiter.
	FetchFailed(key any, err error)

	// A fetched value was not stored because the key was invalidated while
	// the fetch was in flight.
	StaleWriteRejected(key any)

	// An entry that could not be read back was dropped.
	// reason ∈ {"value_decode", "corrupt", "missing", "seq_mismatch"}
	SelfHealed(key any, reason string)

	// Sweep removed n expired entries (n may be 0).
	Swept(n int)
	// Invalidate/InvalidateFunc removed n entries (only called when n > 0).
	Invalidated(n int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(any)                {}
func (NopHooks) Miss(any)               {}
func (NopHooks) Coalesced(any)          {}
func (NopHooks) Superseded(any)         {}
func (NopHooks) FetchFailed(any, error) {}
func (NopHooks) StaleWriteRejected(any) {}
func (NopHooks) SelfHealed(any, string) {}
func (NopHooks) Swept(int)              {}
func (NopHooks) Invalidated(int)        {}

package pagecache

import (
	"errors"

	"github.com/unkn0wn-root/pagecache/coalesce"
)

var (
	ErrClosed        = errors.New("pagecache: closed")
	ErrNilFetcher    = errors.New("pagecache: nil fetcher")
	ErrInvalidConfig = errors.New("pagecache: invalid config")

	// ErrPanic is matched (errors.Is) by the error returned when a fetcher panicked.
	ErrPanic = coalesce.ErrPanic
)

// PanicError carries the recovered value and stack of a panicking fetcher.
type PanicError = coalesce.PanicError

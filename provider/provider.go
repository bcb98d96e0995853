// Package provider defines the byte store that can hold encoded payloads on
// behalf of a store.
//
// The store keeps its own index (key, freshness, reference) and treats the
// provider as dumb payload storage: providers never decide freshness. A
// provider may drop payloads under memory pressure (Ristretto) or expire
// them (Redis safety TTL); the store reports a dropped payload as a miss and
// forgets the entry. Implementations MUST be byte-for-byte transparent: Get
// returns exactly the bytes previously passed to Set.
//
// Keys under "<namespace>:" are owned by the store configured with that
// namespace. Foreign writes fail frame validation and are deleted on read.
package provider

import (
	"context"
	"errors"
)

// ErrNotFound may be wrapped by implementations; callers should rely on the
// ok result of Get instead.
var ErrNotFound = errors.New("provider: not found")

// ErrRejected is returned by Set when the backend refused the write
// (e.g. admission policy). Nothing was stored.
var ErrRejected = errors.New("provider: write rejected")

// Provider is a minimal byte store. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

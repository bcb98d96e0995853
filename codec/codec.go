// Package codec converts cached values to bytes and back.
//
// A store configured with a codec keeps only the encoded form and decodes on
// every read, so each caller gets its own copy of slices and maps instead of
// sharing memory with the cache.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

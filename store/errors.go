package store

import "errors"

var (
	ErrClosed            = errors.New("store: closed")
	ErrCodecRequired     = errors.New("store: codec is required when a provider is set")
	ErrNamespaceRequired = errors.New("store: namespace is required when a provider is set")
)

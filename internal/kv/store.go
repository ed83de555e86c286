package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key doesn't exist in the store.
var ErrKeyNotFound = errors.New("key not found")

// Store is the shared key-value backend holding game, vote and wait-room
// records. Implementations must be safe for concurrent use; any two methods
// may be called from different request goroutines at the same time.
type Store interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a value with the given key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key-value pair. No error if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns every key starting with prefix. Order is not guaranteed.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

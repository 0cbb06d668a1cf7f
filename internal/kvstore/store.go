package kvstore

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is a key-value record store that can report writes made by other
// contexts (another process, another handle) to the same key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Watch invokes fn with the new value whenever a different context
	// writes key. fn receives nil when the key was deleted. Writes made
	// through this handle never fire. The returned stop function cancels
	// the watch and must be called exactly once.
	Watch(key string, fn func(value []byte)) (stop func())
}

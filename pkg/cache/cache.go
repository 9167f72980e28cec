package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Service is a key/value store with per-entry expiry. Values are stored
// encoded, so a reader never shares memory with the writer or other readers.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Expirer is implemented by stores that can report how long a key has left.
// A non-positive duration means the key has no expiry or does not exist.
type Expirer interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
}

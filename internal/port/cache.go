package port

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value cache. A miss returns nil data and no error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

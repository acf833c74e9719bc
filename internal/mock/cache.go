package mock

import (
	"context"
	"sync"
	"time"

	"github.com/fhuszti/media-pipeline/internal/port"
)

// Cache implements cache behaviour for tests.
type Cache struct {
	mu sync.Mutex

	// stored values
	Data map[string][]byte
	TTLs map[string]time.Duration

	// errors
	GetErr error
	SetErr error
	DelErr error

	// captured inputs
	Deleted []string

	// call flags
	GetCalled bool
	SetCalled bool
}

var _ port.Cache = (*Cache)(nil)

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalled = true
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	return c.Data[key], nil
}

func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalled = true
	if c.SetErr != nil {
		return c.SetErr
	}
	if c.Data == nil {
		c.Data = map[string][]byte{}
	}
	if c.TTLs == nil {
		c.TTLs = map[string]time.Duration{}
	}
	c.Data[key] = data
	c.TTLs[key] = ttl
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deleted = append(c.Deleted, keys...)
	for _, k := range keys {
		delete(c.Data, k)
	}
	return c.DelErr
}

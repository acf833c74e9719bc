package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fhuszti/media-pipeline/internal/port"
	lru "github.com/hashicorp/golang-lru/v2"
)

// LocalCache is an in-process LRU used when no Redis address is configured.
type LocalCache struct {
	entries *lru.Cache[string, localEntry]
	now     func() time.Time
}

type localEntry struct {
	data      []byte
	expiresAt time.Time
}

var _ port.Cache = (*LocalCache)(nil)

func NewLocal(size int) (*LocalCache, error) {
	entries, err := lru.New[string, localEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LocalCache{entries: entries, now: time.Now}, nil
}

func (c *LocalCache) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, nil
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

func (c *LocalCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	c.entries.Add(key, localEntry{data: stored, expiresAt: c.now().Add(ttl)})
	return nil
}

func (c *LocalCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.entries.Remove(k)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// MediaKey is the key of the cached read projection of a media.
func MediaKey(id uuid.UUID) string {
	return "media:" + id.String()
}

// PublicURLKey is the key of the cached signed public URL of a media.
func PublicURLKey(id uuid.UUID) string {
	return "public_url:" + id.String()
}

// MediaKeys lists every key derived from a media, for invalidation.
func MediaKeys(id uuid.UUID) []string {
	return []string{MediaKey(id), PublicURLKey(id)}
}

// GetOrLoad returns the value cached at key, or calls load and caches its
// result for ttl. Cache failures are logged and never fail the call.
func GetOrLoad[T any](ctx context.Context, c port.Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	if data, err := c.Get(ctx, key); err != nil {
		logger.Warnf(ctx, "⚠️  cache get %q failed: %v", key, err)
	} else if data != nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		logger.Warnf(ctx, "⚠️  dropping undecodable cache entry %q", key)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		logger.Warnf(ctx, "⚠️  cache encode %q failed: %v", key, err)
		return v, nil
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		logger.Warnf(ctx, "⚠️  cache set %q failed: %v", key, err)
	}
	return v, nil
}

// Package renderer turns use case output into cacheable HTTP payloads.
package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/fhuszti/media-pipeline/internal/cache"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// CacheTTL stays below the lifetime of the signed links inside the body.
const CacheTTL = 30 * time.Minute

type mediaRenderer struct {
	cache  port.Cache
	getter port.MediaGetter
}

var _ port.MediaRenderer = (*mediaRenderer)(nil)

func NewMediaRenderer(c port.Cache, getter port.MediaGetter) port.MediaRenderer {
	return &mediaRenderer{cache: c, getter: getter}
}

func (r *mediaRenderer) RenderMedia(ctx context.Context, id uuid.UUID) (port.Rendered, error) {
	return cache.GetOrLoad(ctx, r.cache, cache.MediaKey(id), CacheTTL, func(ctx context.Context) (port.Rendered, error) {
		out, err := r.getter.GetMedia(ctx, id)
		if err != nil {
			return port.Rendered{}, err
		}
		body, err := json.Marshal(out)
		if err != nil {
			return port.Rendered{}, fmt.Errorf("json marshal: %w", err)
		}
		return port.Rendered{Body: body, ETag: ETag(body)}, nil
	})
}

// ETag is the quoted CRC-32 of body.
func ETag(body []byte) string {
	return fmt.Sprintf(`"%08x"`, crc32.ChecksumIEEE(body))
}

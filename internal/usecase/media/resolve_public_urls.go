package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fhuszti/media-pipeline/internal/cache"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// PublicURLCacheTTL stays well below DownloadURLTTL so a cached link is never
// handed out after it expired.
const PublicURLCacheTTL = DownloadURLTTL / 2

type publicURLResolverSrv struct {
	repo             port.MediaRepository
	strg             port.Storage
	cache            port.Cache
	renditionsBucket string
}

var _ port.PublicURLResolver = (*publicURLResolverSrv)(nil)

func NewPublicURLResolver(repo port.MediaRepository, strg port.Storage, c port.Cache, renditionsBucket string) port.PublicURLResolver {
	return &publicURLResolverSrv{repo, strg, c, renditionsBucket}
}

// ResolvePublicURLs signs read links for every id, keyed by id. Unknown ids
// are left out of the result. The repository is queried once for all ids
// missing from the cache.
func (s *publicURLResolverSrv) ResolvePublicURLs(ctx context.Context, ids []uuid.UUID) (map[string]port.PublicURL, error) {
	ids = dedupe(ids)
	out := make(map[string]port.PublicURL, len(ids))

	var batch map[uuid.UUID]*model.Media
	loadBatch := func(ctx context.Context) error {
		if batch != nil {
			return nil
		}
		medias, err := s.repo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		batch = make(map[uuid.UUID]*model.Media, len(medias))
		for _, m := range medias {
			batch[m.ID] = m
		}
		return nil
	}

	for _, id := range ids {
		u, err := cache.GetOrLoad(ctx, s.cache, cache.PublicURLKey(id), PublicURLCacheTTL, func(ctx context.Context) (port.PublicURL, error) {
			if err := loadBatch(ctx); err != nil {
				return port.PublicURL{}, err
			}
			m, ok := batch[id]
			if !ok || m.Status == model.MediaStatusPending {
				return port.PublicURL{}, ErrObjectNotFound
			}
			return s.sign(ctx, m)
		})
		if errors.Is(err, ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id.String()] = u
	}
	return out, nil
}

func (s *publicURLResolverSrv) sign(ctx context.Context, m *model.Media) (port.PublicURL, error) {
	expiresAt := time.Now().UTC().Add(DownloadURLTTL)
	url, err := s.strg.GeneratePresignedDownloadURL(ctx, m.Bucket, m.ObjectKey, DownloadURLTTL)
	if err != nil {
		return port.PublicURL{}, fmt.Errorf("sign download of %q: %w", m.ObjectKey, err)
	}
	out := port.PublicURL{URL: url, ExpiresAt: expiresAt}
	if m.ThumbnailRef != nil && *m.ThumbnailRef != "" {
		thumb, err := s.strg.GeneratePresignedDownloadURL(ctx, s.renditionsBucket, *m.ThumbnailRef, DownloadURLTTL)
		if err != nil {
			return port.PublicURL{}, fmt.Errorf("sign thumbnail %q: %w", *m.ThumbnailRef, err)
		}
		out.ThumbnailURL = thumb
	}
	return out, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

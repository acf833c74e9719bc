package media

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fhuszti/media-pipeline/internal/cache"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

type deleteMediaSrv struct {
	repo             port.MediaRepository
	cache            port.Cache
	strg             port.Storage
	renditionsBucket string
}

var _ port.MediaDeleter = (*deleteMediaSrv)(nil)

// NewMediaDeleter constructs a MediaDeleter implementation.
func NewMediaDeleter(repo port.MediaRepository, c port.Cache, strg port.Storage, renditionsBucket string) port.MediaDeleter {
	return &deleteMediaSrv{repo: repo, cache: c, strg: strg, renditionsBucket: renditionsBucket}
}

// DeleteMedia removes the renditions and the original file from storage,
// deletes the DB record and clears the cache.
func (s *deleteMediaSrv) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrObjectNotFound
		}
		return err
	}

	for suffix, key := range media.Metadata.Thumbnails() {
		if err := s.strg.RemoveFile(ctx, s.renditionsBucket, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
			logger.Warnf(ctx, "⚠️  failed to remove rendition %s %q: %v", suffix, key, err)
		}
	}

	if err := s.strg.RemoveFile(ctx, media.Bucket, media.ObjectKey); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return err
	}

	if err := s.repo.Delete(ctx, media.ID); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, cache.MediaKeys(media.ID)...); err != nil {
		logger.Warnf(ctx, "⚠️  failed deleting cache for media #%s: %v", media.ID, err)
	}

	return nil
}

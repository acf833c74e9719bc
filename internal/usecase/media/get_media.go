package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// DownloadURLTTL is the lifetime of read links handed to clients.
const DownloadURLTTL = time.Hour

type mediaGetterSrv struct {
	repo             port.MediaRepository
	strg             port.Storage
	renditionsBucket string
}

var _ port.MediaGetter = (*mediaGetterSrv)(nil)

func NewMediaGetter(repo port.MediaRepository, strg port.Storage, renditionsBucket string) port.MediaGetter {
	return &mediaGetterSrv{repo, strg, renditionsBucket}
}

// GetMedia returns the media with signed links to its bytes and renditions.
func (s *mediaGetterSrv) GetMedia(ctx context.Context, id uuid.UUID) (*port.GetMediaOutput, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	if media.Status == model.MediaStatusPending {
		return nil, ErrNotUploaded
	}

	validUntil := time.Now().UTC().Add(DownloadURLTTL)
	url, err := s.strg.GeneratePresignedDownloadURL(ctx, media.Bucket, media.ObjectKey, DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign download of %q: %w", media.ObjectKey, err)
	}

	out := &port.GetMediaOutput{
		ID:         media.ID,
		Type:       media.Type,
		Status:     media.Status,
		MimeType:   media.MimeType,
		SizeBytes:  media.SizeBytes,
		ValidUntil: validUntil,
		URL:        url,
		Partial:    media.IsPartial(),
		Metadata:   media.Metadata,
	}

	thumbs := media.Metadata.Thumbnails()
	if len(thumbs) > 0 {
		out.Renditions = make(map[string]string, len(thumbs))
	}
	for _, suffix := range media.Renditions() {
		u, err := s.strg.GeneratePresignedDownloadURL(ctx, s.renditionsBucket, thumbs[suffix], DownloadURLTTL)
		if err != nil {
			logger.Warnf(ctx, "⚠️  could not sign rendition %s of media #%s: %v", suffix, media.ID, err)
			continue
		}
		out.Renditions[suffix] = u
	}

	if media.ThumbnailRef != nil && *media.ThumbnailRef != "" {
		u, err := s.strg.GeneratePresignedDownloadURL(ctx, s.renditionsBucket, *media.ThumbnailRef, DownloadURLTTL)
		if err != nil {
			logger.Warnf(ctx, "⚠️  could not sign thumbnail of media #%s: %v", media.ID, err)
		} else {
			out.ThumbnailURL = u
		}
	}

	return out, nil
}

package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/fhuszti/media-pipeline/internal/cache"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/notifier"
	"github.com/fhuszti/media-pipeline/internal/port"
)

// DefaultAggregateType is used when an upload only carries a parent scope.
const DefaultAggregateType = "event"

type uploadMarkerSrv struct {
	repo  port.MediaRepository
	refs  port.AggregateLocator
	cache port.Cache
	notif port.Notifier
}

var _ port.UploadMarker = (*uploadMarkerSrv)(nil)

func NewUploadMarker(repo port.MediaRepository, refs port.AggregateLocator, c port.Cache, notif port.Notifier) port.UploadMarker {
	return &uploadMarkerSrv{repo, refs, c, notif}
}

// MarkUploaded moves a pending media to uploaded. The client is trusted: the
// object store is not checked. Calling it again is a no-op on the status.
// Variants confirmed by the client are recorded as thumbnails; @1x becomes
// the thumbnail_ref, any other suffix only fills an empty one.
func (s *uploadMarkerSrv) MarkUploaded(ctx context.Context, in port.MarkUploadedInput) (*model.Media, error) {
	media, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	if err := checkVariants(media, in.Variants); err != nil {
		return nil, err
	}

	if media.Status == model.MediaStatusPending {
		status := model.MediaStatusUploaded
		if err := s.repo.Update(ctx, media.ID, port.MediaPatch{Status: &status}); err != nil {
			return nil, err
		}
		media.Status = status
	}
	if len(in.Variants) > 0 {
		if err := s.recordVariants(ctx, media, in.Variants); err != nil {
			return nil, err
		}
	}

	ref := in.Aggregate
	if ref == nil && media.ParentScope != nil && *media.ParentScope != "" {
		ref = &model.AggregateRef{Type: DefaultAggregateType, ID: *media.ParentScope}
	}
	if ref != nil {
		if err := s.refs.AddReference(ctx, *ref, media.ID); err != nil {
			logger.Warnf(ctx, "⚠️  failed to link media #%s to %s %q: %v", media.ID, ref.Type, ref.ID, err)
		}
	}

	if err := s.cache.Delete(ctx, cache.MediaKeys(media.ID)...); err != nil {
		logger.Warnf(ctx, "⚠️  failed to invalidate cache of media #%s: %v", media.ID, err)
	}
	s.notif.Publish(ctx, notifier.EventMediaUploaded, media)

	return media, nil
}

func checkVariants(media *model.Media, variants []string) error {
	if len(variants) == 0 {
		return nil
	}
	if media.Type != model.MediaTypeImage {
		return ErrNotImage
	}
	for _, suffix := range variants {
		if !slices.Contains(model.RenditionSuffixes, suffix) {
			return fmt.Errorf("%w: %q", ErrInvalidSuffix, suffix)
		}
	}
	return nil
}

func (s *uploadMarkerSrv) recordVariants(ctx context.Context, media *model.Media, variants []string) error {
	thumbs := make(map[string]string, len(variants))
	for _, suffix := range variants {
		thumbs[suffix] = VariantKey(media.ObjectKey, suffix)
	}

	patch := port.RenditionPatch{Thumbnails: thumbs, KeepThumbnailRef: true}
	for _, suffix := range model.RenditionSuffixes {
		if key, ok := thumbs[suffix]; ok {
			patch.ThumbnailRef = key
			patch.KeepThumbnailRef = suffix != model.SuffixSmall
			break
		}
	}
	if err := s.repo.ApplyRenditions(ctx, media.ID, patch); err != nil {
		return fmt.Errorf("record variants of media #%s: %w", media.ID, err)
	}

	media.Metadata = media.Metadata.MergeThumbnails(thumbs)
	if !patch.KeepThumbnailRef || media.ThumbnailRef == nil || *media.ThumbnailRef == "" {
		ref := patch.ThumbnailRef
		media.ThumbnailRef = &ref
	}
	logger.Infof(ctx, "recorded variants %v of media #%s", variants, media.ID)
	return nil
}

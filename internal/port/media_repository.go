package port

import (
	"context"
	"time"

	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// MediaPatch lists the columns a partial update may touch. Nil fields are left alone.
type MediaPatch struct {
	Status       *model.MediaStatus
	ThumbnailRef *string
	// Metadata keys are merged into the stored document.
	Metadata model.Metadata
}

// RenditionPatch records generated renditions on a media.
type RenditionPatch struct {
	Thumbnails   map[string]string
	ThumbnailRef string
	// KeepThumbnailRef leaves an already set thumbnail_ref untouched.
	KeepThumbnailRef bool
	MarkProcessed    bool
}

// MediaRepository defines persistence operations for medias.
type MediaRepository interface {
	Create(ctx context.Context, media *model.Media) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Media, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Media, error)
	Update(ctx context.Context, id uuid.UUID, patch MediaPatch) error
	// ApplyRenditions merges the renditions into the stored record inside a
	// single transaction so concurrent writers never lose keys.
	ApplyRenditions(ctx context.Context, id uuid.UUID, patch RenditionPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListUploadedVideosWithoutThumbnailBefore(ctx context.Context, before time.Time) ([]uuid.UUID, error)
}

// AggregateLocator tracks which aggregates embed a media.
type AggregateLocator interface {
	AddReference(ctx context.Context, ref model.AggregateRef, mediaID uuid.UUID) error
	ListAggregatesForMedia(ctx context.Context, mediaID uuid.UUID) ([]model.AggregateRef, error)
	ListByAggregate(ctx context.Context, ref model.AggregateRef) ([]*model.Media, error)
}

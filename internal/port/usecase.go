package port

import (
	"context"
	"time"

	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

type UUIDGen func() uuid.UUID

// UploadLinkIssuer registers a pending media and returns a presigned link to upload its bytes.
type UploadLinkIssuer interface {
	IssueUploadLink(ctx context.Context, in IssueUploadLinkInput) (IssueUploadLinkOutput, error)
}
type IssueUploadLinkInput struct {
	Bucket      string
	Name        string
	MimeType    string
	SizeBytes   int64
	ParentScope string
	Extra       model.Metadata
}
type IssueUploadLinkOutput struct {
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expires_at"`
	Media     *model.Media `json:"media"`
}

// VariantLinkIssuer returns a link to upload a client generated variant of an image.
type VariantLinkIssuer interface {
	IssueVariantLink(ctx context.Context, in IssueVariantLinkInput) (IssueVariantLinkOutput, error)
}
type IssueVariantLinkInput struct {
	ID       uuid.UUID
	Suffix   string
	MimeType string
}
type IssueVariantLinkOutput struct {
	URL       string    `json:"url"`
	Bucket    string    `json:"bucket"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadMarker records that the client finished transferring the bytes of a media.
type UploadMarker interface {
	MarkUploaded(ctx context.Context, in MarkUploadedInput) (*model.Media, error)
}
type MarkUploadedInput struct {
	ID        uuid.UUID
	Aggregate *model.AggregateRef
	// Variants lists the rendition suffixes the client stored for an image.
	Variants []string
}

// TranscodeEnqueuer schedules the background transcoding of a video.
type TranscodeEnqueuer interface {
	EnqueueTranscode(ctx context.Context, in EnqueueTranscodeInput) error
}
type EnqueueTranscodeInput struct {
	ID             uuid.UUID
	EventContextID string
}

// MediaTranscoder produces the preview renditions of a video.
type MediaTranscoder interface {
	TranscodeMedia(ctx context.Context, in TranscodeMediaInput) (TranscodeMediaOutput, error)
}
type TranscodeMediaInput struct {
	ID             uuid.UUID
	EventContextID string
}
type TranscodeMediaOutput struct {
	Succeeded []string
	Skipped   []string
}

// MediaGetter retrieves media information from the repository and storage.
type MediaGetter interface {
	GetMedia(ctx context.Context, id uuid.UUID) (*GetMediaOutput, error)
}
type GetMediaOutput struct {
	ID           uuid.UUID         `json:"id"`
	Type         model.MediaType   `json:"type"`
	Status       model.MediaStatus `json:"status"`
	MimeType     string            `json:"mime_type"`
	SizeBytes    int64             `json:"size_bytes"`
	ValidUntil   time.Time         `json:"valid_until"`
	URL          string            `json:"url"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	Renditions   map[string]string `json:"renditions,omitempty"`
	Partial      bool              `json:"partial"`
	Metadata     model.Metadata    `json:"metadata"`
}

// PublicURLResolver signs read URLs for a batch of medias.
type PublicURLResolver interface {
	ResolvePublicURLs(ctx context.Context, ids []uuid.UUID) (map[string]PublicURL, error)
}
type PublicURL struct {
	URL          string    `json:"public_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	ExpiresAt    time.Time `json:"public_url_expires_at"`
}

// MediaDeleter deletes a media and its files.
type MediaDeleter interface {
	DeleteMedia(ctx context.Context, id uuid.UUID) error
}

// BacklogTranscoder re-enqueues videos stuck without renditions.
type BacklogTranscoder interface {
	TranscodeBacklog(ctx context.Context) error
}

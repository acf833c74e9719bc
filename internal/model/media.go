package model

import (
	"strings"
	"time"

	"github.com/fhuszti/media-pipeline/internal/uuid"
)

type MediaStatus string

const (
	MediaStatusPending   MediaStatus = "pending"
	MediaStatusUploaded  MediaStatus = "uploaded"
	MediaStatusProcessed MediaStatus = "processed"
)

type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeDocument MediaType = "document"
)

// MediaTypeFromMime maps a MIME type to its media family. Anything that is not
// image, video or audio is stored as a document.
func MediaTypeFromMime(mimeType string) MediaType {
	major, _, _ := strings.Cut(strings.ToLower(mimeType), "/")
	switch major {
	case "image":
		return MediaTypeImage
	case "video":
		return MediaTypeVideo
	case "audio":
		return MediaTypeAudio
	default:
		return MediaTypeDocument
	}
}

// Rendition suffixes, in the order the worker produces them.
const (
	SuffixSmall  = "@1x"
	SuffixMedium = "@2x"
	SuffixLarge  = "@3x"
)

var RenditionSuffixes = []string{SuffixSmall, SuffixMedium, SuffixLarge}

type Media struct {
	ID           uuid.UUID   `json:"id"`
	Type         MediaType   `json:"type"`
	Status       MediaStatus `json:"status"`
	Bucket       string      `json:"bucket"`
	ObjectKey    string      `json:"object_key"`
	Provider     string      `json:"provider"`
	MimeType     string      `json:"mime_type"`
	SizeBytes    int64       `json:"size_bytes"`
	ThumbnailRef *string     `json:"thumbnail_ref,omitempty"`
	ParentScope  *string     `json:"parent_scope,omitempty"`
	Metadata     Metadata    `json:"metadata"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Renditions lists the rendition suffixes recorded for the media, in
// declared order. A processed media with fewer than all suffixes is partial.
func (m *Media) Renditions() []string {
	thumbs := m.Metadata.Thumbnails()
	out := make([]string, 0, len(thumbs))
	for _, s := range RenditionSuffixes {
		if _, ok := thumbs[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// IsPartial reports whether the media was processed but some renditions are missing.
func (m *Media) IsPartial() bool {
	return m.Status == MediaStatusProcessed && len(m.Renditions()) < len(RenditionSuffixes)
}

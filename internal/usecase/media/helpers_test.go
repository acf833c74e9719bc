package media

import (
	"testing"

	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

func mustID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return id
}

func strPtr(s string) *string { return &s }

func videoMedia(t *testing.T) *model.Media {
	t.Helper()
	return &model.Media{
		ID:          mustID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"),
		Type:        model.MediaTypeVideo,
		Status:      model.MediaStatusUploaded,
		Bucket:      "videos",
		ObjectKey:   "evt-1/clip.mp4",
		MimeType:    "video/mp4",
		SizeBytes:   1024,
		ParentScope: strPtr("evt-1"),
		Metadata:    model.Metadata{"upload": map[string]any{"path": "evt-1/clip.mp4"}},
	}
}

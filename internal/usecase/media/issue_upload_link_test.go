package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fhuszti/media-pipeline/internal/mock"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

var testBuckets = model.BucketPolicies{
	"images": {Name: "images", MaxSizeBytes: 5 * 1024 * 1024},
	"videos": {Name: "videos", MaxSizeBytes: 20 * 1024 * 1024},
}

func TestIssueUploadLink_Validation(t *testing.T) {
	tests := []struct {
		name    string
		in      port.IssueUploadLinkInput
		wantErr error
	}{
		{"unknown bucket", port.IssueUploadLinkInput{Bucket: "nope", Name: "a.jpg", SizeBytes: 10}, ErrUnknownBucket},
		{"zero size", port.IssueUploadLinkInput{Bucket: "images", Name: "a.jpg"}, ErrInvalidSize},
		{"too large", port.IssueUploadLinkInput{Bucket: "videos", Name: "a.mp4", SizeBytes: 50 * 1024 * 1024}, ErrSizeExceeded},
		{"bad name", port.IssueUploadLinkInput{Bucket: "images", Name: "", SizeBytes: 10}, ErrInvalidName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mock.MockMediaRepo{}
			strg := &mock.Storage{}
			svc := NewUploadLinkIssuer(repo, strg, testBuckets, uuid.NewUUID, nil)

			_, err := svc.IssueUploadLink(context.Background(), tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if strg.GenerateUploadLinkCalled {
				t.Error("storage must not be called on invalid input")
			}
			if repo.Created != nil {
				t.Error("no record must be created on invalid input")
			}
		})
	}
}

func TestIssueUploadLink_Success(t *testing.T) {
	id := mustID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	repo := &mock.MockMediaRepo{}
	strg := &mock.Storage{ProviderName: "minio"}
	svc := NewUploadLinkIssuer(repo, strg, testBuckets, func() uuid.UUID { return id }, nil)

	out, err := svc.IssueUploadLink(context.Background(), port.IssueUploadLinkInput{
		Bucket:      "images",
		Name:        "photo.webp",
		MimeType:    "image/webp",
		SizeBytes:   2 * 1024 * 1024,
		ParentScope: "evt-1",
		Extra:       model.Metadata{"source": "camera"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out.URL, "images/evt-1/photo.webp") {
		t.Errorf("unexpected url %q", out.URL)
	}
	if strg.TTL != UploadLinkTTL {
		t.Errorf("expected ttl %v, got %v", UploadLinkTTL, strg.TTL)
	}
	m := repo.Created
	if m == nil || out.Media != m {
		t.Fatal("expected the created record to be returned")
	}
	if m.ID != id || m.Status != model.MediaStatusPending || m.Type != model.MediaTypeImage {
		t.Errorf("unexpected record %+v", m)
	}
	if m.Bucket != "images" || m.ObjectKey != "evt-1/photo.webp" || m.Provider != "minio" {
		t.Errorf("unexpected storage location %s/%s (%s)", m.Bucket, m.ObjectKey, m.Provider)
	}
	if m.ParentScope == nil || *m.ParentScope != "evt-1" {
		t.Errorf("expected parent scope evt-1, got %v", m.ParentScope)
	}
	if m.Metadata["source"] != "camera" {
		t.Errorf("extra metadata lost: %v", m.Metadata)
	}
	if _, ok := m.Metadata[model.MetadataKeyUpload]; !ok {
		t.Errorf("expected upload echo in metadata: %v", m.Metadata)
	}
	if !out.ExpiresAt.After(m.CreatedAt) {
		t.Errorf("expires_at %v should be after created_at %v", out.ExpiresAt, m.CreatedAt)
	}
}

func TestIssueUploadLink_Errors(t *testing.T) {
	t.Run("storage", func(t *testing.T) {
		repo := &mock.MockMediaRepo{}
		strg := &mock.Storage{GenerateUploadLinkErr: ErrUnauthorized}
		svc := NewUploadLinkIssuer(repo, strg, testBuckets, uuid.NewUUID, nil)

		_, err := svc.IssueUploadLink(context.Background(), port.IssueUploadLinkInput{Bucket: "images", Name: "a.jpg", SizeBytes: 1})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if repo.Created != nil {
			t.Error("record must not be created when signing fails")
		}
	})

	t.Run("repository", func(t *testing.T) {
		repo := &mock.MockMediaRepo{CreateErr: errors.New("db fail")}
		svc := NewUploadLinkIssuer(repo, &mock.Storage{}, testBuckets, uuid.NewUUID, nil)

		_, err := svc.IssueUploadLink(context.Background(), port.IssueUploadLinkInput{Bucket: "images", Name: "a.jpg", SizeBytes: 1})
		if err == nil || err.Error() != "db fail" {
			t.Fatalf("expected db fail, got %v", err)
		}
	})
}

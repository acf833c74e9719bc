package media

import (
	"context"
	"fmt"
	"time"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/metrics"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
)

// UploadLinkTTL is how long a presigned upload link stays valid.
const UploadLinkTTL = 15 * time.Minute

type uploadLinkIssuerSrv struct {
	repo    port.MediaRepository
	strg    port.Storage
	buckets model.BucketPolicies
	genUUID port.UUIDGen
	metrics *metrics.Metrics
}

// compile-time check: *uploadLinkIssuerSrv must satisfy port.UploadLinkIssuer
var _ port.UploadLinkIssuer = (*uploadLinkIssuerSrv)(nil)

func NewUploadLinkIssuer(repo port.MediaRepository, strg port.Storage, buckets model.BucketPolicies, genUUID port.UUIDGen, m *metrics.Metrics) port.UploadLinkIssuer {
	return &uploadLinkIssuerSrv{repo, strg, buckets, genUUID, m}
}

// IssueUploadLink checks the request against the bucket policy, signs an
// upload URL and records the media as pending.
func (s *uploadLinkIssuerSrv) IssueUploadLink(ctx context.Context, in port.IssueUploadLinkInput) (port.IssueUploadLinkOutput, error) {
	policy, ok := s.buckets[in.Bucket]
	if !ok {
		return port.IssueUploadLinkOutput{}, fmt.Errorf("%w: %q", ErrUnknownBucket, in.Bucket)
	}
	if in.SizeBytes <= 0 {
		return port.IssueUploadLinkOutput{}, ErrInvalidSize
	}
	if in.SizeBytes > policy.MaxSizeBytes {
		return port.IssueUploadLinkOutput{}, fmt.Errorf("%w: %d bytes (max %d bytes for bucket %q)", ErrSizeExceeded, in.SizeBytes, policy.MaxSizeBytes, in.Bucket)
	}

	objectKey, err := ObjectKey(in.ParentScope, in.Name)
	if err != nil {
		return port.IssueUploadLinkOutput{}, fmt.Errorf("%w: %q", err, in.Name)
	}

	now := time.Now().UTC()
	url, err := s.strg.GeneratePresignedUploadURL(ctx, in.Bucket, objectKey, UploadLinkTTL)
	if err != nil {
		return port.IssueUploadLinkOutput{}, fmt.Errorf("sign upload of %q: %w", objectKey, err)
	}
	expiresAt := now.Add(UploadLinkTTL)

	metadata := in.Extra.Merge(model.Metadata{
		model.MetadataKeyUpload: map[string]any{
			"path":       objectKey,
			"expires_at": expiresAt,
		},
	})
	media := &model.Media{
		ID:        s.genUUID(),
		Type:      model.MediaTypeFromMime(in.MimeType),
		Status:    model.MediaStatusPending,
		Bucket:    in.Bucket,
		ObjectKey: objectKey,
		Provider:  s.strg.Provider(),
		MimeType:  in.MimeType,
		SizeBytes: in.SizeBytes,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.ParentScope != "" {
		scope := in.ParentScope
		media.ParentScope = &scope
	}

	if err := s.repo.Create(ctx, media); err != nil {
		return port.IssueUploadLinkOutput{}, err
	}
	s.metrics.IncUploadLink(in.Bucket)
	logger.Infof(ctx, "issued upload link for media #%s (%s/%s)", media.ID, in.Bucket, objectKey)

	return port.IssueUploadLinkOutput{
		URL:       url,
		ExpiresAt: expiresAt,
		Media:     media,
	}, nil
}

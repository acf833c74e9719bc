package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
)

// VariantLinkTTL is longer than UploadLinkTTL: variants are generated on the
// client after the primary transfer finished.
const VariantLinkTTL = 24 * time.Hour

type variantLinkIssuerSrv struct {
	repo             port.MediaRepository
	strg             port.Storage
	renditionsBucket string
}

var _ port.VariantLinkIssuer = (*variantLinkIssuerSrv)(nil)

func NewVariantLinkIssuer(repo port.MediaRepository, strg port.Storage, renditionsBucket string) port.VariantLinkIssuer {
	return &variantLinkIssuerSrv{repo, strg, renditionsBucket}
}

// IssueVariantLink signs an upload to the public renditions bucket for one
// image variant. Nothing is recorded on the media until the client confirms
// the transfer through MarkUploaded.
func (s *variantLinkIssuerSrv) IssueVariantLink(ctx context.Context, in port.IssueVariantLinkInput) (port.IssueVariantLinkOutput, error) {
	if !slices.Contains(model.RenditionSuffixes, in.Suffix) {
		return port.IssueVariantLinkOutput{}, fmt.Errorf("%w: %q", ErrInvalidSuffix, in.Suffix)
	}

	media, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return port.IssueVariantLinkOutput{}, ErrObjectNotFound
		}
		return port.IssueVariantLinkOutput{}, err
	}
	if media.Type != model.MediaTypeImage {
		return port.IssueVariantLinkOutput{}, ErrNotImage
	}

	key := VariantKey(media.ObjectKey, in.Suffix)
	url, err := s.strg.GeneratePresignedUploadURL(ctx, s.renditionsBucket, key, VariantLinkTTL)
	if err != nil {
		return port.IssueVariantLinkOutput{}, fmt.Errorf("sign variant upload of %q: %w", key, err)
	}

	return port.IssueVariantLinkOutput{
		URL:       url,
		Bucket:    s.renditionsBucket,
		ObjectKey: key,
		ExpiresAt: time.Now().UTC().Add(VariantLinkTTL),
	}, nil
}

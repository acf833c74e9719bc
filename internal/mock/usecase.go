package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// MediaGetter implements port.MediaGetter for tests.
type MediaGetter struct {
	Out *port.GetMediaOutput
	Err error

	Called bool
	ID     uuid.UUID
}

func (m *MediaGetter) GetMedia(ctx context.Context, id uuid.UUID) (*port.GetMediaOutput, error) {
	m.Called = true
	m.ID = id
	return m.Out, m.Err
}

type UploadLinkIssuer struct {
	Out port.IssueUploadLinkOutput
	Err error

	Called bool
	In     port.IssueUploadLinkInput
}

func (m *UploadLinkIssuer) IssueUploadLink(ctx context.Context, in port.IssueUploadLinkInput) (port.IssueUploadLinkOutput, error) {
	m.Called = true
	m.In = in
	return m.Out, m.Err
}

type VariantLinkIssuer struct {
	Out port.IssueVariantLinkOutput
	Err error

	Called bool
	In     port.IssueVariantLinkInput
}

func (m *VariantLinkIssuer) IssueVariantLink(ctx context.Context, in port.IssueVariantLinkInput) (port.IssueVariantLinkOutput, error) {
	m.Called = true
	m.In = in
	return m.Out, m.Err
}

type UploadMarker struct {
	Out *model.Media
	Err error

	Called bool
	In     port.MarkUploadedInput
}

func (m *UploadMarker) MarkUploaded(ctx context.Context, in port.MarkUploadedInput) (*model.Media, error) {
	m.Called = true
	m.In = in
	return m.Out, m.Err
}

type TranscodeEnqueuer struct {
	Err error

	Called bool
	In     port.EnqueueTranscodeInput
}

func (m *TranscodeEnqueuer) EnqueueTranscode(ctx context.Context, in port.EnqueueTranscodeInput) error {
	m.Called = true
	m.In = in
	return m.Err
}

// MediaTranscoder is safe for concurrent use, the worker runs several jobs at once.
type MediaTranscoder struct {
	mu  sync.Mutex
	Out port.TranscodeMediaOutput
	Err error

	Inputs []port.TranscodeMediaInput
}

func (m *MediaTranscoder) TranscodeMedia(ctx context.Context, in port.TranscodeMediaInput) (port.TranscodeMediaOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inputs = append(m.Inputs, in)
	return m.Out, m.Err
}

type PublicURLResolver struct {
	Out map[string]port.PublicURL
	Err error

	Called bool
	IDs    []uuid.UUID
}

func (m *PublicURLResolver) ResolvePublicURLs(ctx context.Context, ids []uuid.UUID) (map[string]port.PublicURL, error) {
	m.Called = true
	m.IDs = ids
	return m.Out, m.Err
}

type MediaDeleter struct {
	Err error

	Called bool
	ID     uuid.UUID
}

func (m *MediaDeleter) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	m.Called = true
	m.ID = id
	return m.Err
}

type BacklogTranscoder struct {
	Err    error
	Called bool
}

func (m *BacklogTranscoder) TranscodeBacklog(ctx context.Context) error {
	m.Called = true
	return m.Err
}

var (
	_ port.MediaGetter       = (*MediaGetter)(nil)
	_ port.UploadLinkIssuer  = (*UploadLinkIssuer)(nil)
	_ port.VariantLinkIssuer = (*VariantLinkIssuer)(nil)
	_ port.UploadMarker      = (*UploadMarker)(nil)
	_ port.TranscodeEnqueuer = (*TranscodeEnqueuer)(nil)
	_ port.MediaTranscoder   = (*MediaTranscoder)(nil)
	_ port.PublicURLResolver = (*PublicURLResolver)(nil)
	_ port.MediaDeleter      = (*MediaDeleter)(nil)
	_ port.BacklogTranscoder = (*BacklogTranscoder)(nil)
)

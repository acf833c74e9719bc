package mock

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// MockMediaRepo implements repository operations for tests. ApplyRenditions
// and Update are applied to MediaRecord so repeated calls can be inspected.
type MockMediaRepo struct {
	mu sync.Mutex

	MediaRecord  *model.Media
	MediaRecords []*model.Media

	GetErr             error
	GetByIDsErr        error
	CreateErr          error
	UpdateErr          error
	ApplyRenditionsErr error
	DeleteErr          error
	ListErr            error
	ListOut            []uuid.UUID

	AddReferenceErr error
	AggregatesOut   []model.AggregateRef
	AggregatesErr   error
	ByAggregate     map[model.AggregateRef][]*model.Media
	ByAggregateErr  error

	GetCalled        bool
	GotIDs           []uuid.UUID
	Created          *model.Media
	Patches          []port.MediaPatch
	RenditionPatches []port.RenditionPatch
	DeleteCalled     bool
	DeletedID        uuid.UUID
	ListCalled       bool
	ListBefore       time.Time
	References       []model.AggregateRef
}

var (
	_ port.MediaRepository  = (*MockMediaRepo)(nil)
	_ port.AggregateLocator = (*MockMediaRepo)(nil)
)

func (m *MockMediaRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled = true
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.MediaRecord == nil {
		return nil, sql.ErrNoRows
	}
	cp := *m.MediaRecord
	cp.Metadata = m.MediaRecord.Metadata.Clone()
	return &cp, nil
}

func (m *MockMediaRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GotIDs = ids
	if m.GetByIDsErr != nil {
		return nil, m.GetByIDsErr
	}
	return m.MediaRecords, nil
}

func (m *MockMediaRepo) Create(ctx context.Context, media *model.Media) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = media
	return m.CreateErr
}

func (m *MockMediaRepo) Update(ctx context.Context, id uuid.UUID, patch port.MediaPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Patches = append(m.Patches, patch)
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if m.MediaRecord != nil {
		if patch.Status != nil {
			m.MediaRecord.Status = *patch.Status
		}
		if patch.ThumbnailRef != nil {
			ref := *patch.ThumbnailRef
			m.MediaRecord.ThumbnailRef = &ref
		}
		if patch.Metadata != nil {
			m.MediaRecord.Metadata = m.MediaRecord.Metadata.Merge(patch.Metadata)
		}
	}
	return nil
}

func (m *MockMediaRepo) ApplyRenditions(ctx context.Context, id uuid.UUID, patch port.RenditionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RenditionPatches = append(m.RenditionPatches, patch)
	if m.ApplyRenditionsErr != nil {
		return m.ApplyRenditionsErr
	}
	if m.MediaRecord == nil {
		return sql.ErrNoRows
	}
	m.MediaRecord.Metadata = m.MediaRecord.Metadata.MergeThumbnails(patch.Thumbnails)
	keep := patch.KeepThumbnailRef && m.MediaRecord.ThumbnailRef != nil && *m.MediaRecord.ThumbnailRef != ""
	if !keep && patch.ThumbnailRef != "" {
		ref := patch.ThumbnailRef
		m.MediaRecord.ThumbnailRef = &ref
	}
	if patch.MarkProcessed {
		m.MediaRecord.Status = model.MediaStatusProcessed
	}
	return nil
}

func (m *MockMediaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalled = true
	m.DeletedID = id
	return m.DeleteErr
}

func (m *MockMediaRepo) ListUploadedVideosWithoutThumbnailBefore(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalled = true
	m.ListBefore = before
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListOut, nil
}

func (m *MockMediaRepo) AddReference(ctx context.Context, ref model.AggregateRef, mediaID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.References = append(m.References, ref)
	return m.AddReferenceErr
}

func (m *MockMediaRepo) ListAggregatesForMedia(ctx context.Context, mediaID uuid.UUID) ([]model.AggregateRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AggregatesErr != nil {
		return nil, m.AggregatesErr
	}
	return m.AggregatesOut, nil
}

func (m *MockMediaRepo) ListByAggregate(ctx context.Context, ref model.AggregateRef) ([]*model.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ByAggregateErr != nil {
		return nil, m.ByAggregateErr
	}
	return m.ByAggregate[ref], nil
}

package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// MockDispatcher implements task dispatching for tests.
type MockDispatcher struct {
	mu sync.Mutex

	TranscodeCalled     bool
	TranscodeIDs        []uuid.UUID
	TranscodeContextIDs []string
	TranscodeErr        error
	// TranscodeErrFor fails only the listed ids.
	TranscodeErrFor map[uuid.UUID]error
}

var _ port.TaskDispatcher = (*MockDispatcher)(nil)

func (m *MockDispatcher) EnqueueTranscodeMedia(ctx context.Context, id uuid.UUID, eventContextID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TranscodeCalled = true
	if err := m.TranscodeErrFor[id]; err != nil {
		return err
	}
	m.TranscodeIDs = append(m.TranscodeIDs, id)
	m.TranscodeContextIDs = append(m.TranscodeContextIDs, eventContextID)
	return m.TranscodeErr
}

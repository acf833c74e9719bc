package mock

import (
	"context"

	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

type MediaRenderer struct {
	Out port.Rendered
	Err error

	Calls []uuid.UUID
}

func (m *MediaRenderer) RenderMedia(_ context.Context, id uuid.UUID) (port.Rendered, error) {
	m.Calls = append(m.Calls, id)
	return m.Out, m.Err
}

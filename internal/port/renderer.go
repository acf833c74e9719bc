package port

import (
	"context"
	"encoding/json"

	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// Rendered is a JSON body ready to be served along with its strong ETag.
type Rendered struct {
	Body json.RawMessage `json:"body"`
	ETag string          `json:"etag"`
}

// MediaRenderer serves the GET /medias/{id} payload, from cache when possible.
type MediaRenderer interface {
	RenderMedia(ctx context.Context, id uuid.UUID) (Rendered, error)
}

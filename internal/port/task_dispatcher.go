package port

import (
	"context"

	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// TaskDispatcher enqueues asynchronous tasks related to media processing.
type TaskDispatcher interface {
	EnqueueTranscodeMedia(ctx context.Context, id uuid.UUID, eventContextID string) error
}

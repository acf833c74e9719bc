package task

import (
	"context"
	"fmt"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
	"github.com/hibiken/asynq"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Dispatcher struct {
	client enqueuer
}

// compile-time check
var _ port.TaskDispatcher = (*Dispatcher)(nil)

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) EnqueueTranscodeMedia(ctx context.Context, id uuid.UUID, eventContextID string) error {
	t, err := NewTranscodeMediaTask(id.String(), eventContextID)
	if err != nil {
		return err
	}
	info, err := d.client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("enqueue transcode for media #%s: %w", id, err)
	}
	logger.Infof(ctx, "queued transcode task %s for media #%s on %q", info.ID, id, info.Queue)
	return nil
}

type NoopDispatcher struct{}

var _ port.TaskDispatcher = (*NoopDispatcher)(nil)

func NewNoopDispatcher() *NoopDispatcher { return &NoopDispatcher{} }

func (d *NoopDispatcher) EnqueueTranscodeMedia(ctx context.Context, id uuid.UUID, eventContextID string) error {
	return nil
}

package notifier

import (
	"context"

	"github.com/fhuszti/media-pipeline/internal/port"
)

type NoopNotifier struct{}

var _ port.Notifier = (*NoopNotifier)(nil)

func NewNoop() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Publish(ctx context.Context, event string, payload any) {}

package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/media-pipeline/internal/port"
)

type PublishedEvent struct {
	Event   string
	Payload any
}

// Notifier records published events.
type Notifier struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

var _ port.Notifier = (*Notifier)(nil)

func (n *Notifier) Publish(ctx context.Context, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, PublishedEvent{Event: event, Payload: payload})
}

func (n *Notifier) Count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.Events {
		if e.Event == event {
			c++
		}
	}
	return c
}

package notifier

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventMediaUploaded  = "media.uploaded"
	EventMediaProcessed = "media.processed"

	// Channel is the Redis pub/sub channel events are fanned out on.
	Channel = "media-events"
)

// Envelope is the wire form of every published event.
type Envelope struct {
	Event       string          `json:"event"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

func encode(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Payload: raw, PublishedAt: time.Now().UTC()})
}

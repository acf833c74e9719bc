package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeTranscodeMedia = "media:transcode"

	QueueMedia = "media"
)

type TranscodeMediaPayload struct {
	MediaID        string    `json:"media_id"`
	EventContextID string    `json:"event_context_id,omitempty"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// NewTranscodeMediaTask creates an Asynq task producing the renditions of a video.
func NewTranscodeMediaTask(mediaID, eventContextID string) (*asynq.Task, error) {
	p := TranscodeMediaPayload{
		MediaID:        mediaID,
		EventContextID: eventContextID,
		EnqueuedAt:     time.Now().UTC(),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal transcode-media payload: %w", err)
	}
	return asynq.NewTask(TypeTranscodeMedia, data, asynq.Queue(QueueMedia), asynq.MaxRetry(5)), nil
}

// ParseTranscodeMediaPayload parses the task payload to TranscodeMediaPayload.
func ParseTranscodeMediaPayload(t *asynq.Task) (TranscodeMediaPayload, error) {
	var p TranscodeMediaPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return TranscodeMediaPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	if p.MediaID == "" {
		return TranscodeMediaPayload{}, fmt.Errorf("payload has no media_id")
	}
	return p, nil
}

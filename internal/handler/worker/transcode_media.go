package worker

import (
	"context"
	"errors"

	"github.com/fhuszti/media-pipeline/internal/api_context"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/task"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// ErrInvalidPayload is returned for jobs that can never succeed. The caller
// should not retry them.
var ErrInvalidPayload = errors.New("invalid transcode payload")

// TranscodeMediaHandler handles a transcode-media job. Processing failures
// are logged and swallowed: the job is acknowledged and never retried, the
// original upload stays usable without renditions.
func TranscodeMediaHandler(ctx context.Context, p task.TranscodeMediaPayload, svc port.MediaTranscoder) error {
	id, err := uuid.Parse(p.MediaID)
	if err != nil {
		logger.Errorf(ctx, "❌  Invalid media ID %q: %v", p.MediaID, err)
		return errors.Join(ErrInvalidPayload, err)
	}
	ctx = api_context.WithMediaID(ctx, id)

	out, err := svc.TranscodeMedia(ctx, port.TranscodeMediaInput{ID: id, EventContextID: p.EventContextID})
	switch {
	case errors.Is(err, media.ErrObjectNotFound):
		logger.Warnf(ctx, "⚠️  Media #%s no longer exists, dropping transcode job", id)
		return nil
	case errors.Is(err, media.ErrNotVideo):
		logger.Warnf(ctx, "⚠️  Media #%s is not a video, dropping transcode job", id)
		return nil
	case err != nil:
		logger.Errorf(ctx, "❌  Failed to transcode media #%s: %v", id, err)
		return nil
	}

	if len(out.Succeeded) == 0 {
		logger.Warnf(ctx, "⚠️  No rendition produced for media #%s", id)
		return nil
	}
	logger.Infof(ctx, "✅  Successfully transcoded media #%s (%d ok, %d skipped)", id, len(out.Succeeded), len(out.Skipped))
	return nil
}

package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
)

type transcodeEnqueuerSrv struct {
	repo  port.MediaRepository
	tasks port.TaskDispatcher
}

var _ port.TranscodeEnqueuer = (*transcodeEnqueuerSrv)(nil)

func NewTranscodeEnqueuer(repo port.MediaRepository, tasks port.TaskDispatcher) port.TranscodeEnqueuer {
	return &transcodeEnqueuerSrv{repo, tasks}
}

// EnqueueTranscode queues a transcode job for a video. A video still pending
// is promoted to uploaded first: the client only asks once its bytes are
// stored, even when its MarkUploaded call was lost.
func (s *transcodeEnqueuerSrv) EnqueueTranscode(ctx context.Context, in port.EnqueueTranscodeInput) error {
	media, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrObjectNotFound
		}
		return err
	}
	if media.Type != model.MediaTypeVideo {
		return ErrNotVideo
	}
	if media.Status == model.MediaStatusPending {
		status := model.MediaStatusUploaded
		if err := s.repo.Update(ctx, media.ID, port.MediaPatch{Status: &status}); err != nil {
			return fmt.Errorf("promote media #%s to uploaded: %w", media.ID, err)
		}
		logger.Warnf(ctx, "⚠️  media #%s was still pending when its transcode was requested", media.ID)
	}

	if err := s.tasks.EnqueueTranscodeMedia(ctx, media.ID, in.EventContextID); err != nil {
		return fmt.Errorf("enqueue transcode of media #%s: %w", media.ID, err)
	}
	logger.Infof(ctx, "queued transcode job for media #%s", media.ID)
	return nil
}

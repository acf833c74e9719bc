package media

import (
	"context"
	"time"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
)

// BacklogAge is how long an uploaded video may wait for renditions before
// the backlog picks it up again.
const BacklogAge = time.Hour

type backlogTranscoderSrv struct {
	repo  port.MediaRepository
	tasks port.TaskDispatcher
}

// compile-time check: *backlogTranscoderSrv must satisfy port.BacklogTranscoder
var _ port.BacklogTranscoder = (*backlogTranscoderSrv)(nil)

// NewBacklogTranscoder constructs a BacklogTranscoder implementation.
func NewBacklogTranscoder(repo port.MediaRepository, tasks port.TaskDispatcher) port.BacklogTranscoder {
	return &backlogTranscoderSrv{repo, tasks}
}

// TranscodeBacklog looks for videos uploaded more than BacklogAge ago that
// still have no thumbnail and enqueues transcode jobs for them. The worker
// derives the event context from the media's parent scope.
func (s *backlogTranscoderSrv) TranscodeBacklog(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-BacklogAge)
	ids, err := s.repo.ListUploadedVideosWithoutThumbnailBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		logger.Info(ctx, "no videos found to transcode")
	}

	for _, id := range ids {
		logger.Infof(ctx, "re-queuing transcode for media #%s", id)
		if err := s.tasks.EnqueueTranscodeMedia(ctx, id, ""); err != nil {
			logger.Warnf(ctx, "failed to enqueue transcode task for media #%s: %v", id, err)
		}
	}
	return nil
}

package api

import (
	"errors"
	"net/http"

	"github.com/fhuszti/media-pipeline/internal/api_context"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
)

type EnqueueTranscodeRequest struct {
	EventContextID string `json:"event_context_id" validate:"max=128"`
}

func EnqueueTranscodeHandler(svc port.TranscodeEnqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.IDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		var req EnqueueTranscodeRequest
		if !decodeAndValidateOptional(w, r, &req) {
			return
		}

		err := svc.EnqueueTranscode(r.Context(), port.EnqueueTranscodeInput{ID: id, EventContextID: req.EventContextID})
		if err != nil {
			switch {
			case errors.Is(err, media.ErrObjectNotFound):
				WriteError(w, http.StatusNotFound, "Media not found", nil)
			case errors.Is(err, media.ErrNotVideo):
				WriteError(w, http.StatusUnprocessableEntity, "Only videos can be transcoded", nil)
			default:
				WriteError(w, http.StatusInternalServerError, "Could not schedule transcoding", err)
			}
			return
		}

		w.WriteHeader(http.StatusAccepted)
		logger.Infof(r.Context(), "✅  Transcoding scheduled for media #%s", id)
	}
}

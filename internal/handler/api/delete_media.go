package api

import (
	"errors"
	"net/http"

	"github.com/fhuszti/media-pipeline/internal/api_context"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
)

// DeleteMediaHandler removes a media, its stored objects and its references.
func DeleteMediaHandler(svc port.MediaDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := api_context.IDFromContext(ctx)
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		err := svc.DeleteMedia(ctx, id)
		switch {
		case errors.Is(err, media.ErrObjectNotFound):
			WriteError(w, http.StatusNotFound, "Media not found", nil)
			return
		case err != nil:
			WriteError(w, http.StatusInternalServerError, "Failed to delete media", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		// the contextual logger already carries the caller's uid
		logger.Infof(ctx, "🗑️  Media #%s deleted", id)
	}
}

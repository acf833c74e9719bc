package api

import (
	"net/http"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

type ResolvePublicURLsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
}

// ResolvePublicURLsHandler signs read URLs for a batch of medias. Unknown or
// pending ids are absent from the response.
func ResolvePublicURLsHandler(svc port.PublicURLResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolvePublicURLsRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		out, err := svc.ResolvePublicURLs(r.Context(), req.IDs)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Could not resolve public URLs", err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		RespondJSON(w, http.StatusOK, out)
		logger.Infof(r.Context(), "✅  Resolved %d/%d public URLs", len(out), len(req.IDs))
	}
}

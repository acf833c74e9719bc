package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fhuszti/media-pipeline/internal/api_context"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
)

func GetMediaHandler(renderer port.MediaRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.IDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		out, err := renderer.RenderMedia(r.Context(), id)
		switch {
		case errors.Is(err, media.ErrObjectNotFound):
			WriteError(w, http.StatusNotFound, "Media not found", nil)
			return
		case errors.Is(err, media.ErrNotUploaded):
			WriteError(w, http.StatusConflict, "Media has not been uploaded yet", nil)
			return
		case err != nil:
			WriteError(w, http.StatusInternalServerError, "Could not get media details", err)
			return
		}

		w.Header().Set("ETag", out.ETag)
		w.Header().Set("Cache-Control", "private, max-age=300")
		if etagMatches(r.Header.Get("If-None-Match"), out.ETag) {
			w.WriteHeader(http.StatusNotModified)
			logger.Infof(r.Context(), "✅  Media #%s not modified", id)
			return
		}

		RespondRawJSON(w, http.StatusOK, out.Body)
		logger.Infof(r.Context(), "✅  Successfully returned details for media #%s", id)
	}
}

// etagMatches applies the weak comparison of an If-None-Match header.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

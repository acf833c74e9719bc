package api

import (
	"errors"
	"net/http"

	"github.com/fhuszti/media-pipeline/internal/api_context"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
)

type IssueVariantLinkRequest struct {
	Suffix   string `json:"suffix" validate:"required,suffix"`
	MimeType string `json:"mime_type" validate:"omitempty,mimetype"`
}

func IssueVariantLinkHandler(svc port.VariantLinkIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.IDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		var req IssueVariantLinkRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		out, err := svc.IssueVariantLink(r.Context(), port.IssueVariantLinkInput{ID: id, Suffix: req.Suffix, MimeType: req.MimeType})
		if err != nil {
			switch {
			case errors.Is(err, media.ErrObjectNotFound):
				WriteError(w, http.StatusNotFound, "Media not found", nil)
			case errors.Is(err, media.ErrNotImage):
				WriteError(w, http.StatusUnprocessableEntity, "Variants can only be uploaded for images", nil)
			case errors.Is(err, media.ErrInvalidSuffix):
				WriteError(w, http.StatusBadRequest, "Invalid suffix", nil)
			default:
				WriteError(w, http.StatusInternalServerError, "Could not generate variant link", err)
			}
			return
		}

		RespondJSON(w, http.StatusCreated, out)
		logger.Infof(r.Context(), "✅  Successfully generated %s variant link for media #%s", req.Suffix, id)
	}
}

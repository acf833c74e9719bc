package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/fhuszti/media-pipeline/internal/api_context"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
)

type MarkUploadedRequest struct {
	AggregateType string   `json:"aggregate_type" validate:"required_with=AggregateID,max=64"`
	AggregateID   string   `json:"aggregate_id" validate:"required_with=AggregateType,max=128"`
	Variants      []string `json:"variants" validate:"max=3,unique,dive,suffix"`
}

// MarkUploadedHandler accepts an empty body: the aggregate is then derived
// from the media's parent scope and no variant is recorded.
func MarkUploadedHandler(svc port.UploadMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.IDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		var req MarkUploadedRequest
		if !decodeAndValidateOptional(w, r, &req) {
			return
		}

		in := port.MarkUploadedInput{ID: id, Variants: req.Variants}
		if req.AggregateID != "" {
			in.Aggregate = &model.AggregateRef{Type: req.AggregateType, ID: req.AggregateID}
		}

		out, err := svc.MarkUploaded(r.Context(), in)
		if err != nil {
			switch {
			case errors.Is(err, media.ErrObjectNotFound):
				WriteError(w, http.StatusNotFound, "Media not found", nil)
				return
			case errors.Is(err, media.ErrNotImage):
				WriteError(w, http.StatusUnprocessableEntity, "Variants can only be recorded for images", nil)
				return
			case errors.Is(err, media.ErrInvalidSuffix):
				WriteError(w, http.StatusBadRequest, "Invalid suffix", nil)
				return
			}
			WriteError(w, http.StatusInternalServerError, "Could not mark media as uploaded", err)
			return
		}

		RespondJSON(w, http.StatusOK, out)
		logger.Infof(r.Context(), "✅  Media #%s marked as uploaded", id)
	}
}

// decodeAndValidateOptional behaves like decodeAndValidate but accepts an
// empty body.
func decodeAndValidateOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	if len(body) == 0 {
		return true
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return decodeAndValidate(w, r, dst)
}

package api

import (
	"errors"
	"net/http"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
)

type IssueUploadLinkRequest struct {
	Bucket      string         `json:"bucket" validate:"required,max=63"`
	Path        string         `json:"path" validate:"required,max=255"`
	MimeType    string         `json:"mime_type" validate:"required,mimetype"`
	Size        int64          `json:"size" validate:"required,gt=0"`
	ParentScope string         `json:"parent_scope" validate:"max=128"`
	Extra       model.Metadata `json:"extra"`
}

func IssueUploadLinkHandler(svc port.UploadLinkIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IssueUploadLinkRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		out, err := svc.IssueUploadLink(r.Context(), port.IssueUploadLinkInput{
			Bucket:      req.Bucket,
			Name:        req.Path,
			MimeType:    req.MimeType,
			SizeBytes:   req.Size,
			ParentScope: req.ParentScope,
			Extra:       req.Extra,
		})
		if err != nil {
			switch {
			case errors.Is(err, media.ErrUnknownBucket):
				WriteError(w, http.StatusBadRequest, "Unknown bucket", err)
			case errors.Is(err, media.ErrSizeExceeded):
				WriteError(w, http.StatusRequestEntityTooLarge, "File is too large for this bucket", err)
			case errors.Is(err, media.ErrInvalidSize), errors.Is(err, media.ErrInvalidName):
				WriteError(w, http.StatusBadRequest, "Invalid file", err)
			default:
				WriteError(w, http.StatusInternalServerError, "Could not generate upload link", err)
			}
			return
		}

		RespondJSON(w, http.StatusCreated, out)
		logger.Infof(r.Context(), "✅  Successfully generated upload link for media #%s", out.Media.ID)
	}
}

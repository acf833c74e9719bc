package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fhuszti/media-pipeline/internal/mock"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

func TestDeleteMediaHandler(t *testing.T) {
	validID := mustID(t, validIDStr)

	tests := map[string]struct {
		ctxID      *uuid.UUID
		svcErr     error
		wantStatus int
		wantError  string
	}{
		"deleted":       {ctxID: &validID, wantStatus: http.StatusNoContent},
		"no id":         {wantStatus: http.StatusBadRequest, wantError: "ID is required"},
		"unknown media": {ctxID: &validID, svcErr: media.ErrObjectNotFound, wantStatus: http.StatusNotFound, wantError: "Media not found"},
		"wrapped not found": {
			ctxID:      &validID,
			svcErr:     errors.Join(errors.New("lookup"), media.ErrObjectNotFound),
			wantStatus: http.StatusNotFound,
			wantError:  "Media not found",
		},
		"storage failure": {ctxID: &validID, svcErr: errors.New("minio down"), wantStatus: http.StatusInternalServerError, wantError: "Failed to delete media"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &mock.MediaDeleter{Err: tc.svcErr}
			rec := httptest.NewRecorder()
			DeleteMediaHandler(svc)(rec, withID(httptest.NewRequest(http.MethodDelete, "/medias/"+validIDStr, nil), tc.ctxID))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
			if svc.Called != (tc.ctxID != nil) {
				t.Errorf("service called = %v with ctxID %v", svc.Called, tc.ctxID)
			}
			if svc.Called && svc.ID != validID {
				t.Errorf("service got %s; want %s", svc.ID, validID)
			}
			if tc.wantError == "" {
				if rec.Body.Len() != 0 {
					t.Errorf("204 carried a body: %q", rec.Body.String())
				}
				return
			}
			if !contains(rec.Body.String(), tc.wantError) {
				t.Errorf("body = %q; want %q", rec.Body.String(), tc.wantError)
			}
		})
	}
}

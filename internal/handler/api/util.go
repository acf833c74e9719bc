package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, status int, msg string, err error) {
	ctx := context.Background()
	if err != nil {
		logger.Errorf(ctx, "❌  %s: %v", msg, err)
	} else {
		logger.Error(ctx, "❌  "+msg)
	}
	noStore(w)
	RespondJSON(w, status, ErrorResponse{Error: msg})
}

// Errors must never be cached by a browser or a proxy.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, max-age=0, must-revalidate")
}

// NotFoundHandler and MethodNotAllowedHandler replace chi's plain text
// fallbacks with the usual JSON error body.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		RespondJSON(w, http.StatusNotFound, ErrorResponse{Error: "This endpoint does not exist"})
	}
}

func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		RespondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error: fmt.Sprintf("Method %s is not allowed on %s", r.Method, r.URL.Path),
		})
	}
}

func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf(context.Background(), "❌  Failed to encode JSON response: %v", err)
	}
}

func RespondRawJSON(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		logger.Errorf(context.Background(), "❌  Failed to write JSON payload: %v", err)
	}
}

// decodeAndValidate reads the JSON body into dst and runs the struct
// validation. It writes the error response itself and reports whether the
// handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request", fmt.Errorf("invalid JSON: %w", err))
		return false
	}

	err := validation.Struct(dst)
	if err == nil {
		return true
	}
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		WriteError(w, http.StatusInternalServerError, "Could not validate request", err)
		return false
	}
	payload, err := fe.JSON()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Validation error (could not encode details)", fmt.Errorf("encoding validation errors: %w", err))
		return false
	}
	logger.Warnf(r.Context(), "❌  Validation failed: %s", payload)
	RespondRawJSON(w, http.StatusBadRequest, payload)
	return false
}

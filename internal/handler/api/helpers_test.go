package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/fhuszti/media-pipeline/internal/api_context"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

const validIDStr = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"

func mustID(t testing.TB, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", s, err)
	}
	return id
}

func withID(req *http.Request, id *uuid.UUID) *http.Request {
	if id == nil {
		return req
	}
	return req.WithContext(api_context.WithMediaID(req.Context(), *id))
}

func contains(haystack, needle string) bool {
	return needle == "" || strings.Contains(haystack, needle)
}

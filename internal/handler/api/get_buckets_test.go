package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fhuszti/media-pipeline/internal/model"
)

func TestGetBucketsHandler(t *testing.T) {
	buckets := model.BucketPolicies{
		"videos":  {Name: "videos", MaxSizeBytes: 500 << 20},
		"avatars": {Name: "avatars", MaxSizeBytes: 2 << 20, Public: true},
	}
	h := GetBucketsHandler(buckets)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/buckets", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	var out []model.BucketPolicy
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].Name != "avatars" || out[1].Name != "videos" {
		t.Fatalf("buckets = %+v; want avatars then videos", out)
	}
	if !out[0].Public || out[1].MaxSizeBytes != 500<<20 {
		t.Errorf("policies not preserved: %+v", out)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFoundHandler()(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("404 handler status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	MethodNotAllowedHandler()(rec, httptest.NewRequest(http.MethodPut, "/buckets", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("405 handler status = %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode 405 body: %v", err)
	}
	if resp.Error != "Method PUT is not allowed on /buckets" {
		t.Errorf("405 error = %q", resp.Error)
	}
}

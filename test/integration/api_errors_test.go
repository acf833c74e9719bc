package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
	"github.com/fhuszti/media-pipeline/test/testutil"
)

func postJSON(t *testing.T, url string, body any) (*http.Response, errorResponse) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var e errorResponse
	if resp.StatusCode >= 400 {
		_ = json.NewDecoder(resp.Body).Decode(&e)
	}
	return resp, e
}

func TestAPIIntegration_UploadLinkRejections(t *testing.T) {
	h := testutil.NewHarness(t, globalMinio, globalRedisAddr)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantError  string
	}{
		{
			name:       "oversized",
			body:       map[string]any{"bucket": testutil.UploadsBucket, "path": "big.webp", "mime_type": "image/webp", "size": 6 << 20},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "unknown bucket",
			body:       map[string]any{"bucket": "nope", "path": "a.webp", "mime_type": "image/webp", "size": 10},
			wantStatus: http.StatusBadRequest,
			wantError:  "Unknown bucket",
		},
		{
			name:       "missing fields",
			body:       map[string]any{"path": "a.webp"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, e := postJSON(t, h.Server.URL+"/medias/upload_link", tc.body)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d; want %d", resp.StatusCode, tc.wantStatus)
			}
			if tc.wantError != "" && e.Error != tc.wantError {
				t.Errorf("error = %q; want %q", e.Error, tc.wantError)
			}
			if cc := resp.Header.Get("Cache-Control"); cc != "no-store, max-age=0, must-revalidate" {
				t.Errorf("Cache-Control = %q; want no-store...", cc)
			}
		})
	}
}

func issueLink(t *testing.T, h *testutil.Harness, body map[string]any) port.IssueUploadLinkOutput {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(h.Server.URL+"/medias/upload_link", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST upload_link: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload_link status = %d; want 201", resp.StatusCode)
	}
	var link port.IssueUploadLinkOutput
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		t.Fatalf("decode link: %v", err)
	}
	return link
}

func TestAPIIntegration_PendingVideo(t *testing.T) {
	h := testutil.NewHarness(t, globalMinio, globalRedisAddr)

	link := issueLink(t, h, map[string]any{
		"bucket": testutil.VideosBucket, "path": "clip.mp4", "mime_type": "video/mp4", "size": 2048,
	})
	id := link.Media.ID.String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"get pending", http.MethodGet, "/medias/" + id, "", http.StatusConflict},
		{"transcode pending", http.MethodPost, "/medias/" + id + "/transcode", "", http.StatusConflict},
		{"variant of video", http.MethodPost, "/medias/" + id + "/variant_link", `{"suffix":"@1x"}`, http.StatusUnprocessableEntity},
		{"unknown media", http.MethodGet, "/medias/" + uuid.NewUUID().String(), "", http.StatusNotFound},
		{"invalid id", http.MethodGet, "/medias/not-a-uuid", "", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, h.Server.URL+tc.path, strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("%s %s: %v", tc.method, tc.path, err)
			}
			_ = resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d; want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}

package media

import (
	"errors"
	"testing"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name, scope, file string
		want              string
		wantErr           error
	}{
		{"no scope", "", "photo.jpg", "photo.jpg", nil},
		{"scope", "evt-1", "photo.jpg", "evt-1/photo.jpg", nil},
		{"trims slashes", "/evt-1/", "/photo.jpg", "evt-1/photo.jpg", nil},
		{"cleans traversal", "", "../../etc/passwd", "etc/passwd", nil},
		{"empty name", "evt-1", "  ", "", ErrInvalidName},
		{"scope traversal", "../x", "photo.jpg", "", ErrInvalidName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ObjectKey(tc.scope, tc.file)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestVariantKey(t *testing.T) {
	if got := VariantKey("evt-1/photo.webp", "@2x"); got != "evt-1/photo@2x.webp" {
		t.Errorf("got %q", got)
	}
	if got := VariantKey("noext", "@1x"); got != "noext@1x" {
		t.Errorf("got %q", got)
	}
}

func TestRenditionKey(t *testing.T) {
	id := mustID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	if got := RenditionKey("evt-1", id, "@3x", "webp"); got != "evt-1/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee@3x.webp" {
		t.Errorf("got %q", got)
	}
	if got := RenditionKey("", id, "@1x", ".gif"); got != "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee@1x.gif" {
		t.Errorf("got %q", got)
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := ContentTypeFor("webp"); got != "image/webp" {
		t.Errorf("webp: got %q", got)
	}
	if got := ContentTypeFor("unknown-format"); got != "application/octet-stream" {
		t.Errorf("unknown: got %q", got)
	}
}

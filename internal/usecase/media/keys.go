package media

import (
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// ObjectKey builds the storage path of an upload: "[scope/]name".
func ObjectKey(parentScope, name string) (string, error) {
	name = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(name)), "/")
	if name == "" || name == "." {
		return "", ErrInvalidName
	}
	scope := strings.Trim(strings.TrimSpace(parentScope), "/")
	if scope == "" {
		return name, nil
	}
	if strings.Contains(scope, "..") {
		return "", ErrInvalidName
	}
	return scope + "/" + name, nil
}

// VariantKey inserts the suffix before the extension of objectKey.
func VariantKey(objectKey, suffix string) string {
	ext := path.Ext(objectKey)
	return strings.TrimSuffix(objectKey, ext) + suffix + ext
}

// RenditionKey is the path of a worker rendition: "{eventContextId}/{mediaId}{suffix}.{ext}".
func RenditionKey(eventContextID string, id uuid.UUID, suffix, ext string) string {
	name := fmt.Sprintf("%s%s.%s", id, suffix, strings.TrimPrefix(ext, "."))
	if eventContextID == "" {
		return name
	}
	return strings.Trim(eventContextID, "/") + "/" + name
}

// ContentTypeFor guesses the MIME type of a rendition format, e.g. "webp".
func ContentTypeFor(format string) string {
	if ct := mime.TypeByExtension("." + strings.TrimPrefix(format, ".")); ct != "" {
		return ct
	}
	switch strings.ToLower(format) {
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "mp4":
		return "video/mp4"
	}
	return "application/octet-stream"
}

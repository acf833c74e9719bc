package media

import "errors"

var (
	ErrObjectNotFound = errors.New("storage: object not found")
	ErrBucketNotFound = errors.New("storage: bucket not found")
	ErrUnauthorized   = errors.New("storage: unauthorized")
	ErrInternal       = errors.New("storage: internal error")
)

// Validation errors, returned before anything is written.
var (
	ErrUnknownBucket = errors.New("unknown bucket")
	ErrSizeExceeded  = errors.New("file size exceeds the bucket limit")
	ErrInvalidSize   = errors.New("file size must be positive")
	ErrInvalidName   = errors.New("invalid object name")
	ErrInvalidSuffix = errors.New("unknown rendition suffix")
)

var (
	ErrNotImage       = errors.New("media is not an image")
	ErrNotVideo       = errors.New("media is not a video")
	ErrNotUploaded    = errors.New("media bytes were not uploaded yet")
	ErrDownloadFailed = errors.New("source download failed")

	// ErrAllRenditionsFailed is logged, never returned: the job is still acknowledged.
	ErrAllRenditionsFailed = errors.New("every rendition failed")
)

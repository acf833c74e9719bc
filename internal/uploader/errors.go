package uploader

import (
	"errors"
	"fmt"
)

var (
	ErrSizeExceeded  = errors.New("file size exceeds the bucket limit")
	ErrEmptyFile     = errors.New("file is empty")
	ErrUnknownBucket = errors.New("unknown bucket")
	ErrNoPolicies    = errors.New("no bucket policies configured")
)

// ValidationError is returned before any byte leaves the client.
type ValidationError struct {
	Name string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %q: %v", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransferError reports a failed exchange with the API or the object store.
// Status is zero when no response was received.
type TransferError struct {
	Step   string
	Status int
	Err    error
}

func (e *TransferError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Step, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// VariantGenerationError is logged, it never fails the parent upload.
type VariantGenerationError struct {
	Suffix string
	Err    error
}

func (e *VariantGenerationError) Error() string {
	return fmt.Sprintf("variant %s: %v", e.Suffix, e.Err)
}

func (e *VariantGenerationError) Unwrap() error { return e.Err }

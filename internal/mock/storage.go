package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fhuszti/media-pipeline/internal/port"
)

// Storage implements the storage interface for tests. Saved files are kept
// in memory keyed by "bucket/key".
type Storage struct {
	mu sync.Mutex

	// stored values
	ProviderName string
	// BaseURL replaces "https://storage.local" in generated links, e.g. an httptest server.
	BaseURL     string
	StatInfoOut port.FileInfo
	ExistsOut   bool
	Files       map[string][]byte

	// captured inputs
	InitBuckets   map[string]bool
	ObjectKey     string
	Bucket        string
	TTL           time.Duration
	Removed       []string
	SavedOpts     map[string]map[string]string
	DownloadCalls []string

	// errors
	InitBucketErr           error
	GenerateDownloadLinkErr error
	GenerateUploadLinkErr   error
	StatErr                 error
	RemoveErr               error
	GetErr                  error
	SaveErr                 error
	SaveErrFor              map[string]error
	FileExistsErr           error

	// call flags
	GenerateDownloadLinkCalled bool
	GenerateUploadLinkCalled   bool
	StatCalled                 bool
	GetCalled                  bool
}

var _ port.Storage = (*Storage)(nil)

func (s *Storage) Provider() string {
	if s.ProviderName == "" {
		return "mock"
	}
	return s.ProviderName
}

func (s *Storage) base() string {
	if s.BaseURL == "" {
		return "https://storage.local"
	}
	return s.BaseURL
}

func (s *Storage) InitBucket(ctx context.Context, bucket string, public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InitBuckets == nil {
		s.InitBuckets = map[string]bool{}
	}
	s.InitBuckets[bucket] = public
	return s.InitBucketErr
}

func (s *Storage) GeneratePresignedDownloadURL(ctx context.Context, bucket, fileKey string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GenerateDownloadLinkCalled = true
	s.Bucket, s.ObjectKey, s.TTL = bucket, fileKey, expiry
	s.DownloadCalls = append(s.DownloadCalls, bucket+"/"+fileKey)
	if s.GenerateDownloadLinkErr != nil {
		return "", s.GenerateDownloadLinkErr
	}
	return fmt.Sprintf("%s/%s/%s?op=get", s.base(), bucket, fileKey), nil
}

func (s *Storage) GeneratePresignedUploadURL(ctx context.Context, bucket, fileKey string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GenerateUploadLinkCalled = true
	s.Bucket, s.ObjectKey, s.TTL = bucket, fileKey, expiry
	if s.GenerateUploadLinkErr != nil {
		return "", s.GenerateUploadLinkErr
	}
	return fmt.Sprintf("%s/%s/%s?op=put", s.base(), bucket, fileKey), nil
}

func (s *Storage) FileExists(ctx context.Context, bucket, fileKey string) (bool, error) {
	if s.FileExistsErr != nil {
		return false, s.FileExistsErr
	}
	return s.ExistsOut, nil
}

func (s *Storage) StatFile(ctx context.Context, bucket, fileKey string) (port.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StatCalled = true
	if s.StatErr != nil {
		return port.FileInfo{}, s.StatErr
	}
	return s.StatInfoOut, nil
}

func (s *Storage) RemoveFile(ctx context.Context, bucket, fileKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removed = append(s.Removed, bucket+"/"+fileKey)
	return s.RemoveErr
}

func (s *Storage) GetFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalled = true
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	return io.NopCloser(bytes.NewReader(s.Files[bucket+"/"+fileKey])), nil
}

func (s *Storage) SaveFile(ctx context.Context, bucket, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.SaveErrFor[fileKey]; err != nil {
		return err
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if s.Files == nil {
		s.Files = map[string][]byte{}
	}
	if s.SavedOpts == nil {
		s.SavedOpts = map[string]map[string]string{}
	}
	s.Files[bucket+"/"+fileKey] = data
	s.SavedOpts[bucket+"/"+fileKey] = opts
	return nil
}

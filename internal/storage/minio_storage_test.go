package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/minio/minio-go/v7"
)

type mockMinio struct {
	bucketExistsFn       func(ctx context.Context, bucketName string) (bool, error)
	makeBucketFn         func(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) (err error)
	setBucketPolicyFn    func(ctx context.Context, bucketName, policy string) error
	removeObjectFn       func(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	presignedGetObjectFn func(ctx context.Context, bucket, key string, expiry time.Duration, params url.Values) (*url.URL, error)
	presignedPutObjectFn func(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error)
	statObjectFn         func(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	getObjectFn          func(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	putObjectFn          func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

func (m *mockMinio) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	return m.getObjectFn(ctx, bucketName, objectName, opts)
}
func (m *mockMinio) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return m.bucketExistsFn(ctx, bucketName)
}
func (m *mockMinio) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) (err error) {
	return m.makeBucketFn(ctx, bucketName, opts)
}
func (m *mockMinio) SetBucketPolicy(ctx context.Context, bucketName, policy string) error {
	return m.setBucketPolicyFn(ctx, bucketName, policy)
}
func (m *mockMinio) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.removeObjectFn(ctx, bucketName, objectName, opts)
}
func (m *mockMinio) PresignedGetObject(ctx context.Context, bucket, key string, expiry time.Duration, params url.Values) (*url.URL, error) {
	return m.presignedGetObjectFn(ctx, bucket, key, expiry, params)
}
func (m *mockMinio) PresignedPutObject(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error) {
	return m.presignedPutObjectFn(ctx, bucket, key, expiry)
}
func (m *mockMinio) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return m.statObjectFn(ctx, bucket, key, opts)
}
func (m *mockMinio) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.putObjectFn(ctx, bucketName, objectName, reader, objectSize, opts)
}

func minioErr(code string) error {
	return minio.ErrorResponse{Code: code, Message: code}
}

func TestMinioStorage_InitBucket(t *testing.T) {
	tests := []struct {
		name           string
		exists         bool
		public         bool
		existsErr      error
		makeErr        error
		policyErr      error
		wantMakeCalled bool
		wantPolicy     bool
		wantErr        error
	}{
		{
			name:   "bucket exists, no create",
			exists: true,
		},
		{
			name:           "bucket does not exist, create succeeds",
			wantMakeCalled: true,
		},
		{
			name:       "public bucket gets a read policy",
			exists:     true,
			public:     true,
			wantPolicy: true,
		},
		{
			name:      "BucketExists error bubbles up",
			existsErr: minioErr("AccessDenied"),
			wantErr:   media.ErrUnauthorized,
		},
		{
			name:           "MakeBucket error bubbles up",
			makeErr:        errors.New("make fail"),
			wantMakeCalled: true,
			wantErr:        media.ErrInternal,
		},
		{
			name:       "SetBucketPolicy error bubbles up",
			exists:     true,
			public:     true,
			policyErr:  errors.New("policy fail"),
			wantPolicy: true,
			wantErr:    media.ErrInternal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			makeCalled, policySet := false, ""

			mock := &mockMinio{
				bucketExistsFn: func(ctx context.Context, bucketName string) (bool, error) {
					return tc.exists, tc.existsErr
				},
				makeBucketFn: func(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
					makeCalled = true
					return tc.makeErr
				},
				setBucketPolicyFn: func(ctx context.Context, bucketName, policy string) error {
					policySet = policy
					return tc.policyErr
				},
			}

			s := &MinioStorage{client: mock}
			err := s.InitBucket(context.Background(), "my-bucket", tc.public)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error = %v; want %v", err, tc.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if makeCalled != tc.wantMakeCalled {
				t.Errorf("MakeBucket called = %v; want %v", makeCalled, tc.wantMakeCalled)
			}
			if got := policySet != ""; got != tc.wantPolicy {
				t.Errorf("policy set = %v; want %v", got, tc.wantPolicy)
			}
			if tc.wantPolicy && !strings.Contains(policySet, "arn:aws:s3:::my-bucket/*") {
				t.Errorf("unexpected policy %s", policySet)
			}
		})
	}
}

func TestMinioStorage_GeneratePresignedDownloadURL(t *testing.T) {
	fake, _ := url.Parse("https://cdn.example.com/download?x=1")
	mock := &mockMinio{
		presignedGetObjectFn: func(_ context.Context, bucket, key string, expiry time.Duration, _ url.Values) (*url.URL, error) {
			// bucket and key should be forwarded
			if bucket != "my-bucket" {
				t.Errorf("bucket = %q; want %q", bucket, "my-bucket")
			}
			if key != "path/to/asset.png" {
				t.Errorf("key = %q; want %q", key, "path/to/asset.png")
			}
			if expiry != 15*time.Minute {
				t.Errorf("expiry = %v; want %v", expiry, 15*time.Minute)
			}
			return fake, nil
		},
	}
	s := &MinioStorage{client: mock}

	out, err := s.GeneratePresignedDownloadURL(context.Background(), "my-bucket", "path/to/asset.png", 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != fake.String() {
		t.Errorf("url = %q; want %q", out, fake.String())
	}
}

func TestMinioStorage_GeneratePresignedDownloadURL_Error(t *testing.T) {
	mock := &mockMinio{
		presignedGetObjectFn: func(_ context.Context, _, _ string, _ time.Duration, _ url.Values) (*url.URL, error) {
			return nil, errors.New("fail-get")
		},
	}
	s := &MinioStorage{client: mock}

	_, err := s.GeneratePresignedDownloadURL(context.Background(), "b", "k", 5*time.Minute)
	if !errors.Is(err, media.ErrInternal) {
		t.Fatalf("error = %v; want ErrInternal", err)
	}
	if !strings.Contains(err.Error(), "fail-get") {
		t.Errorf("error = %q; want it to mention %q", err.Error(), "fail-get")
	}
}

func TestMinioStorage_GeneratePresignedUploadURL(t *testing.T) {
	fake, _ := url.Parse("https://cdn.example.com/upload")
	mock := &mockMinio{
		presignedPutObjectFn: func(_ context.Context, bucket, key string, expiry time.Duration) (*url.URL, error) {
			if bucket != "u-bucket" {
				t.Errorf("bucket = %q; want %q", bucket, "u-bucket")
			}
			if key != "obj.bin" {
				t.Errorf("key = %q; want %q", key, "obj.bin")
			}
			if expiry != 5*time.Minute {
				t.Errorf("expiry = %v; want %v", expiry, 5*time.Minute)
			}
			return fake, nil
		},
	}
	s := &MinioStorage{client: mock}

	out, err := s.GeneratePresignedUploadURL(context.Background(), "u-bucket", "obj.bin", 5*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != fake.String() {
		t.Errorf("url = %q; want %q", out, fake.String())
	}
}

func TestMinioStorage_FileExists(t *testing.T) {
	tests := []struct {
		name       string
		statErr    error
		wantExists bool
		wantErr    bool
	}{
		{name: "object exists", wantExists: true},
		{name: "NoSuchKey → does not exist", statErr: minioErr("NoSuchKey")},
		{name: "other error", statErr: errors.New("boom"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockMinio{
				statObjectFn: func(_ context.Context, _, _ string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
					return minio.ObjectInfo{Size: 10}, tc.statErr
				},
			}
			s := &MinioStorage{client: mock}

			exists, err := s.FileExists(context.Background(), "b", "foo")
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v; wantErr %v", err, tc.wantErr)
			}
			if exists != tc.wantExists {
				t.Errorf("exists = %v; want %v", exists, tc.wantExists)
			}
		})
	}
}

func TestMinioStorage_StatFile(t *testing.T) {
	mock := &mockMinio{
		statObjectFn: func(_ context.Context, bucket, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
			return minio.ObjectInfo{Size: 2048, ContentType: "video/mp4"}, nil
		},
	}
	s := &MinioStorage{client: mock}

	info, err := s.StatFile(context.Background(), "videos", "clip.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.SizeBytes != 2048 || info.ContentType != "video/mp4" {
		t.Errorf("info = %+v", info)
	}
}

func TestMinioStorage_GetFile_Error(t *testing.T) {
	mock := &mockMinio{
		getObjectFn: func(_ context.Context, _, _ string, _ minio.GetObjectOptions) (*minio.Object, error) {
			return nil, minioErr("NoSuchBucket")
		},
	}
	s := &MinioStorage{client: mock}

	_, err := s.GetFile(context.Background(), "missing", "k")
	if !errors.Is(err, media.ErrBucketNotFound) {
		t.Fatalf("error = %v; want ErrBucketNotFound", err)
	}
}

func TestMinioStorage_SaveFile(t *testing.T) {
	var gotOpts minio.PutObjectOptions
	var gotSize int64
	var gotBody string
	mock := &mockMinio{
		putObjectFn: func(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
			b, _ := io.ReadAll(r)
			gotBody, gotSize, gotOpts = string(b), size, opts
			return minio.UploadInfo{Bucket: bucket, Key: key}, nil
		},
	}
	s := &MinioStorage{client: mock}

	err := s.SaveFile(context.Background(), "renditions", "ctx/id@1x.webp", strings.NewReader("data"), 4, map[string]string{
		"Content-Type":  "image/webp",
		"Cache-Control": "public, max-age=31536000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody != "data" || gotSize != 4 {
		t.Errorf("body=%q size=%d", gotBody, gotSize)
	}
	if gotOpts.ContentType != "image/webp" || gotOpts.CacheControl != "public, max-age=31536000" {
		t.Errorf("opts = %+v", gotOpts)
	}
}

func TestMinioStorage_RemoveFile(t *testing.T) {
	called := false
	mock := &mockMinio{
		removeObjectFn: func(_ context.Context, bucket, key string, _ minio.RemoveObjectOptions) error {
			called = bucket == "b" && key == "k"
			return nil
		},
	}
	s := &MinioStorage{client: mock}

	if err := s.RemoveFile(context.Background(), "b", "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("RemoveObject not called with bucket/key")
	}
	if s.Provider() != ProviderMinio {
		t.Errorf("Provider() = %q", s.Provider())
	}
}

func TestMapMinioErr(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"NoSuchKey", media.ErrObjectNotFound},
		{"NoSuchBucket", media.ErrBucketNotFound},
		{"AccessDenied", media.ErrUnauthorized},
		{"SignatureDoesNotMatch", media.ErrUnauthorized},
		{"SlowDown", media.ErrInternal},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			if got := mapMinioErr(minioErr(tc.code)); !errors.Is(got, tc.want) {
				t.Errorf("mapMinioErr(%s) = %v; want %v", tc.code, got, tc.want)
			}
		})
	}
	if mapMinioErr(nil) != nil {
		t.Error("mapMinioErr(nil) should be nil")
	}
}

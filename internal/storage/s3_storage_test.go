package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
)

type mockS3 struct {
	headBucketErr   error
	createBucketErr error
	createdBucket   string
	policy          string
	headObject      *s3.HeadObjectOutput
	headObjectErr   error
	putInput        *s3.PutObjectInput
	putBody         string
	deleted         string
	getErr          error
}

func (m *mockS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, m.headBucketErr
}
func (m *mockS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	m.createdBucket = aws.ToString(in.Bucket)
	return &s3.CreateBucketOutput{}, m.createBucketErr
}
func (m *mockS3) PutBucketPolicy(_ context.Context, in *s3.PutBucketPolicyInput, _ ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	m.policy = aws.ToString(in.Policy)
	return &s3.PutBucketPolicyOutput{}, nil
}
func (m *mockS3) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return m.headObject, m.headObjectErr
}
func (m *mockS3) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("payload"))}, nil
}
func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.putInput = in
	b, _ := io.ReadAll(in.Body)
	m.putBody = string(b)
	return &s3.PutObjectOutput{}, nil
}
func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.deleted = aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type mockPresigner struct {
	lastKey string
	err     error
}

func (m *mockPresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	m.lastKey = aws.ToString(in.Key)
	if m.err != nil {
		return nil, m.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3.example/get/" + m.lastKey, Method: "GET"}, nil
}
func (m *mockPresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	m.lastKey = aws.ToString(in.Key)
	if m.err != nil {
		return nil, m.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3.example/put/" + m.lastKey, Method: "PUT"}, nil
}

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func TestS3Storage_InitBucket(t *testing.T) {
	t.Run("missing bucket is created and opened", func(t *testing.T) {
		client := &mockS3{headBucketErr: apiErr("NotFound")}
		s := &S3Storage{client: client, presigner: &mockPresigner{}}

		if err := s.InitBucket(context.Background(), "renditions", true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.createdBucket != "renditions" {
			t.Errorf("created bucket = %q", client.createdBucket)
		}
		if !strings.Contains(client.policy, "arn:aws:s3:::renditions/*") {
			t.Errorf("policy = %q", client.policy)
		}
	})

	t.Run("existing private bucket is left alone", func(t *testing.T) {
		client := &mockS3{}
		s := &S3Storage{client: client, presigner: &mockPresigner{}}

		if err := s.InitBucket(context.Background(), "videos", false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.createdBucket != "" || client.policy != "" {
			t.Errorf("unexpected calls: created=%q policy=%q", client.createdBucket, client.policy)
		}
	})

	t.Run("forbidden bubbles up", func(t *testing.T) {
		client := &mockS3{headBucketErr: apiErr("Forbidden")}
		s := &S3Storage{client: client, presigner: &mockPresigner{}}

		if err := s.InitBucket(context.Background(), "videos", false); !errors.Is(err, media.ErrUnauthorized) {
			t.Fatalf("error = %v; want ErrUnauthorized", err)
		}
	})
}

func TestS3Storage_Presign(t *testing.T) {
	p := &mockPresigner{}
	s := &S3Storage{client: &mockS3{}, presigner: p}
	ctx := context.Background()

	up, err := s.GeneratePresignedUploadURL(ctx, "videos", "evt/clip.mp4", 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up != "https://s3.example/put/evt/clip.mp4" {
		t.Errorf("upload url = %q", up)
	}

	down, err := s.GeneratePresignedDownloadURL(ctx, "videos", "evt/clip.mp4", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down != "https://s3.example/get/evt/clip.mp4" {
		t.Errorf("download url = %q", down)
	}

	p.err = errors.New("no creds")
	if _, err := s.GeneratePresignedDownloadURL(ctx, "videos", "k", time.Hour); !errors.Is(err, media.ErrInternal) {
		t.Errorf("error = %v; want ErrInternal", err)
	}
}

func TestS3Storage_StatAndExists(t *testing.T) {
	client := &mockS3{headObject: &s3.HeadObjectOutput{ContentLength: aws.Int64(42), ContentType: aws.String("image/webp")}}
	s := &S3Storage{client: client, presigner: &mockPresigner{}}
	ctx := context.Background()

	info, err := s.StatFile(ctx, "images", "a.webp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.SizeBytes != 42 || info.ContentType != "image/webp" {
		t.Errorf("info = %+v", info)
	}

	client.headObjectErr = apiErr("NotFound")
	exists, err := s.FileExists(ctx, "images", "missing.webp")
	if err != nil || exists {
		t.Errorf("FileExists = %v, %v; want false, nil", exists, err)
	}
}

func TestS3Storage_SaveGetRemove(t *testing.T) {
	client := &mockS3{}
	s := &S3Storage{client: client, presigner: &mockPresigner{}}
	ctx := context.Background()

	if err := s.SaveFile(ctx, "renditions", "e/m@1x.webp", strings.NewReader("abc"), 3, map[string]string{"Content-Type": "image/webp"}); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if client.putBody != "abc" || aws.ToInt64(client.putInput.ContentLength) != 3 || aws.ToString(client.putInput.ContentType) != "image/webp" {
		t.Errorf("put input = %+v body=%q", client.putInput, client.putBody)
	}

	rc, err := s.GetFile(ctx, "renditions", "e/m@1x.webp")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "payload" {
		t.Errorf("body = %q", b)
	}

	client.getErr = apiErr("NoSuchKey")
	if _, err := s.GetFile(ctx, "renditions", "gone"); !errors.Is(err, media.ErrObjectNotFound) {
		t.Errorf("GetFile error = %v; want ErrObjectNotFound", err)
	}

	if err := s.RemoveFile(ctx, "renditions", "e/m@1x.webp"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if client.deleted != "renditions/e/m@1x.webp" {
		t.Errorf("deleted = %q", client.deleted)
	}
	if s.Provider() != ProviderS3 {
		t.Errorf("Provider() = %q", s.Provider())
	}
}

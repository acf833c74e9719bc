package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
)

const ProviderS3 = "s3"

// S3Storage talks to AWS S3 or any S3 compatible endpoint.
type S3Storage struct {
	client    s3Client
	presigner s3Presigner
}

var _ port.Storage = (*S3Storage)(nil)

func NewS3Storage(ctx context.Context, endpoint, region, accessKey, secretKey string) (*S3Storage, error) {
	logger.Infof(ctx, "initialising s3 client for region %q...", region)
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &S3Storage{client: client, presigner: s3.NewPresignClient(client)}, nil
}

func (s *S3Storage) Provider() string {
	return ProviderS3
}

func (s *S3Storage) InitBucket(ctx context.Context, bucket string, public bool) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		mapped := mapS3Err(err)
		if !errors.Is(mapped, media.ErrObjectNotFound) && !errors.Is(mapped, media.ErrBucketNotFound) {
			return mapped
		}
		logger.Infof(ctx, "bucket %q does not exist, creating it...", bucket)
		if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
			return mapS3Err(err)
		}
	}
	if public {
		if _, err := s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
			Bucket: aws.String(bucket),
			Policy: aws.String(publicReadPolicy(bucket)),
		}); err != nil {
			return mapS3Err(err)
		}
	}
	return nil
}

func (s *S3Storage) GeneratePresignedDownloadURL(ctx context.Context, bucket, fileKey string, expiry time.Duration) (string, error) {
	logger.Debugf(ctx, "generating a presigned download link for file %q in bucket %q...", fileKey, bucket)

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", mapS3Err(err)
	}
	return req.URL, nil
}

func (s *S3Storage) GeneratePresignedUploadURL(ctx context.Context, bucket, fileKey string, expiry time.Duration) (string, error) {
	logger.Debugf(ctx, "generating a presigned upload link for file %q in bucket %q...", fileKey, bucket)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", mapS3Err(err)
	}
	return req.URL, nil
}

func (s *S3Storage) FileExists(ctx context.Context, bucket, fileKey string) (bool, error) {
	_, err := s.StatFile(ctx, bucket, fileKey)
	if errors.Is(err, media.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *S3Storage) StatFile(ctx context.Context, bucket, fileKey string) (port.FileInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileKey),
	})
	if err != nil {
		return port.FileInfo{}, mapS3Err(err)
	}
	return port.FileInfo{
		SizeBytes:   aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

func (s *S3Storage) RemoveFile(ctx context.Context, bucket, fileKey string) error {
	logger.Debugf(ctx, "removing file %q from bucket %q...", fileKey, bucket)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileKey),
	})
	return mapS3Err(err)
}

func (s *S3Storage) GetFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileKey),
	})
	if err != nil {
		return nil, mapS3Err(err)
	}
	return out.Body, nil
}

func (s *S3Storage) SaveFile(ctx context.Context, bucket, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	logger.Debugf(ctx, "saving file %q into bucket %q...", fileKey, bucket)

	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileKey),
		Body:   reader,
	}
	if fileSize >= 0 {
		in.ContentLength = aws.Int64(fileSize)
	}
	if ct := opts["Content-Type"]; ct != "" {
		in.ContentType = aws.String(ct)
	}
	if cc := opts["Cache-Control"]; cc != "" {
		in.CacheControl = aws.String(cc)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return mapS3Err(err)
	}
	return nil
}

package testutil

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/fhuszti/media-pipeline/internal/model"
)

const (
	UploadsBucket    = "uploads"
	VideosBucket     = "videos"
	RenditionsBucket = "renditions"
)

// TestBucketPolicies mirrors a small production bucket layout.
func TestBucketPolicies() model.BucketPolicies {
	return model.BucketPolicies{
		UploadsBucket: {Name: UploadsBucket, MaxSizeBytes: 5 << 20},
		VideosBucket:  {Name: VideosBucket, MaxSizeBytes: 50 << 20},
	}
}

// SetupTestBuckets creates every test bucket through the storage layer and
// returns a cleanup that empties them.
func SetupTestBuckets(ctx context.Context, mi *MinIOContainerInfo) (func() error, error) {
	buckets := map[string]bool{UploadsBucket: false, VideosBucket: false, RenditionsBucket: true}
	for b, public := range buckets {
		if err := mi.Strg.InitBucket(ctx, b, public); err != nil {
			return nil, fmt.Errorf("could not create bucket %q: %w", b, err)
		}
	}

	return func() error {
		for b := range buckets {
			for obj := range mi.Client.ListObjects(ctx, b, minio.ListObjectsOptions{Recursive: true}) {
				if obj.Err != nil {
					return fmt.Errorf("list %q: %w", b, obj.Err)
				}
				if err := mi.Client.RemoveObject(ctx, b, obj.Key, minio.RemoveObjectOptions{}); err != nil {
					return fmt.Errorf("remove %s/%s: %w", b, obj.Key, err)
				}
			}
		}
		return nil
	}, nil
}

// ObjectExists reports whether key is present in bucket.
func ObjectExists(ctx context.Context, mi *MinIOContainerInfo, bucket, key string) (bool, error) {
	_, err := mi.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

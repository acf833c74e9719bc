package storage

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/minio/minio-go/v7"
)

func mapMinioErr(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	return mapCode(resp.Code, err)
}

func mapS3Err(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return mapCode(apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%w: %v", media.ErrInternal, err)
}

func mapCode(code string, err error) error {
	switch code {
	// HeadObject answers a bare 404 without a body, reported as "NotFound"
	case "NoSuchKey", "NotFound":
		return media.ErrObjectNotFound
	case "NoSuchBucket":
		return media.ErrBucketNotFound
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return media.ErrUnauthorized
	default:
		// catch everything else
		return fmt.Errorf("%w: %v", media.ErrInternal, err)
	}
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

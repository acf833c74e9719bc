package storage

import (
	"context"
	"fmt"

	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/fhuszti/media-pipeline/internal/port"
)

// New builds the storage provider selected by the settings.
func New(ctx context.Context, cfg *config.Settings) (port.Storage, error) {
	switch cfg.StorageProvider {
	case config.StorageProviderS3:
		endpoint := ""
		if cfg.MinioEndpoint != "" {
			scheme := "http"
			if cfg.MinioUseSSL {
				scheme = "https"
			}
			endpoint = scheme + "://" + cfg.MinioEndpoint
		}
		return NewS3Storage(ctx, endpoint, cfg.S3Region, cfg.MinioAccessKey, cfg.MinioSecretKey)
	case config.StorageProviderMinio, "":
		return NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}

// InitBuckets makes sure every configured bucket and the renditions bucket exist.
func InitBuckets(ctx context.Context, strg port.Storage, cfg *config.Settings) error {
	for _, name := range cfg.Buckets.Names() {
		if err := strg.InitBucket(ctx, name, cfg.Buckets[name].Public); err != nil {
			return fmt.Errorf("init bucket %q: %w", name, err)
		}
	}
	if _, declared := cfg.Buckets[cfg.RenditionsBucket]; !declared {
		if err := strg.InitBucket(ctx, cfg.RenditionsBucket, true); err != nil {
			return fmt.Errorf("init bucket %q: %w", cfg.RenditionsBucket, err)
		}
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonreport/incident-api/pkg/config"
)

// ImageStore persists report images and returns the reference kept on the report.
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New selects the image store for the configured driver. The inline driver
// returns nil: images stay embedded in the report record.
func New(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", config.StorageInline:
		return nil, nil
	case config.StorageLocal:
		local, err := NewLocalStorage(cfg.Dir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		return local, nil
	case config.StorageS3:
		bucket, err := NewS3Storage(ctx, S3Options{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			CDNDomain: cfg.S3CDNDomain,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return bucket, nil
	default:
		return nil, fmt.Errorf("unknown image storage driver %q", cfg.Driver)
	}
}

// Package blobstore keeps evidence photos. Reports store only the URL
// returned by Put.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecocheck/ecocheck/internal/pkg/config"
)

// Store persists photo bytes and returns a URL clients can fetch.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

var ErrInvalidKey = errors.New("invalid object key")

// ObjectKey builds "<prefix>/YYYY/MM/<uuid><ext>".
func ObjectKey(prefix, ext string, now time.Time) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%04d/%02d/%s%s", strings.Trim(prefix, "/"), now.Year(), int(now.Month()), uuid.NewString(), strings.ToLower(ext))
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path.Clean(key), nil
}

// New returns the store selected by cfg.BlobStore ("local" or "s3").
func New(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.BlobStore {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	case "s3":
		if !cfg.S3Configured() {
			return nil, errors.New("BLOB_STORE=s3 needs S3_BUCKET_NAME, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY")
		}
		return NewS3Store(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			EndpointURL:     cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown BLOB_STORE %q", cfg.BlobStore)
	}
}

package storage

import (
	"context"
	"io"
)

// ObjectStorage is the surface the split pipeline needs to publish chunk
// artifacts to an S3-compatible bucket.
type ObjectStorage interface {
	// EnsureBucket creates the target bucket if it does not exist.
	EnsureBucket(ctx context.Context) error

	// Upload uploads an object to storage.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the URL for accessing an object.
	GetURL(key string) string
}

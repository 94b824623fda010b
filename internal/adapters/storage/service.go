// Package storage archives raw provider deliveries in S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// ObjectStore is the slice of object storage the archive needs.
type ObjectStore interface {
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// PutObject stores size bytes from reader under key.
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error

	// GetObject opens an object. The caller closes the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// ListKeys returns the keys under prefix in lexical order.
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucketCallbacks() string
	IsArchiveEnabled() bool
}

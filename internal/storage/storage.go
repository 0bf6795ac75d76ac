// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO, AWS S3).
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// Storage is the interface for storing and retrieving opaque blobs.
type Storage interface {
	// Put streams data to the store under the given key. size must be the
	// exact byte count (pass -1 only if genuinely unknown).
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get opens a read stream for the object and reports its content type.
	// Caller closes the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	// Delete removes an object identified by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL granting credential-free read
	// access to the object.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Package storage defines the contract for object storage operations.
// Objects live in one of two buckets: "originals" holds full-size uploads,
// "thumbnails" holds the generated derivatives under the same key. Swap
// implementations by changing the concrete type injected at startup — the
// MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached
// or refuses an operation for infrastructure reasons. Retryable.
var ErrStoreUnavailable = errors.New("object store unavailable")

// ErrNotFound is returned when the requested object does not exist.
// On the read path absence is a normal signal, not a failure.
var ErrNotFound = errors.New("object not found")

// ErrInvalidPayload is returned when the store rejects the payload itself
// (zero-length body with a positive declared size, oversized object, ...).
var ErrInvalidPayload = errors.New("invalid payload")

// Store is the interface for bucket and object operations.
type Store interface {
	// EnsureBucket creates the bucket if it does not exist. Idempotent.
	EnsureBucket(ctx context.Context, bucket string) error
	// Put streams data to the store under (bucket, key), overwriting any
	// existing object. size must be the exact byte count. Returns the
	// canonical (unsigned) URL of the stored object.
	Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) (string, error)
	// Get retrieves the object payload. Caller closes the returned reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// Exists reports whether an object is present under (bucket, key).
	// A missing object is (false, nil), not an error.
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, bucket, key string) error
	// URL returns the canonical unsigned URL for (bucket, key) without
	// touching the store.
	URL(bucket, key string) string
}

// ObjectEvent describes a single object-created notification from the store.
// Err is set instead of Bucket/Key when the notification stream itself failed.
type ObjectEvent struct {
	Bucket string
	Key    string
	Err    error
}

// EventListener delivers object-created events for a bucket. Delivery is
// at-least-once; consumers must be idempotent.
type EventListener interface {
	// ListenCreated streams creation events until ctx is cancelled.
	// The returned channel is closed when the subscription ends.
	ListenCreated(ctx context.Context, bucket string) <-chan ObjectEvent
}

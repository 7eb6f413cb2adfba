package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/notification"
)

// MinioStore implements Store and EventListener using a MinIO (or any
// S3-compatible) backend.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore creates a MinIO client and returns a ready-to-use MinioStore.
// Buckets are not created here; callers ensure the buckets they need.
func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

// Client exposes the underlying minio client for collaborators that need
// direct access to it (URL signing).
func (s *MinioStore) Client() *minio.Client {
	return s.client
}

// EnsureBucket creates the bucket if it does not exist. Idempotent.
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w: %v", bucket, ErrStoreUnavailable, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		// Concurrent creation loses the race but the bucket is there.
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("create bucket %q: %w: %v", bucket, ErrStoreUnavailable, err)
	}
	log.Printf("storage: created bucket %q", bucket)
	return nil
}

// Put streams reader to the store under (bucket, key). size must be the exact
// byte count. An existing object under the same key is overwritten.
func (s *MinioStore) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if size == 0 {
		return "", fmt.Errorf("put object %q: %w: empty body", key, ErrInvalidPayload)
	}
	_, err := s.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w: %v", key, ErrStoreUnavailable, err)
	}
	return s.URL(bucket, key), nil
}

// Get retrieves the object payload. The caller must close the returned reader.
func (s *MinioStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w: %v", key, ErrStoreUnavailable, err)
	}
	// GetObject is lazy; stat now so a missing key surfaces here, not on
	// the first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isAbsent(err) {
			return nil, fmt.Errorf("get object %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get object %q: %w: %v", key, ErrStoreUnavailable, err)
	}
	return obj, nil
}

// Exists reports whether an object is present under (bucket, key).
func (s *MinioStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isAbsent(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %q: %w: %v", key, ErrStoreUnavailable, err)
}

// Delete removes the object at (bucket, key). Missing keys are not an error.
func (s *MinioStore) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isAbsent(err) {
			return nil
		}
		return fmt.Errorf("remove object %q: %w: %v", key, ErrStoreUnavailable, err)
	}
	return nil
}

// URL returns the canonical unsigned URL for (bucket, key).
func (s *MinioStore) URL(bucket, key string) string {
	return s.BaseURL() + "/" + bucket + "/" + key
}

// BaseURL returns the store endpoint URL without a trailing slash.
func (s *MinioStore) BaseURL() string {
	return strings.TrimRight(s.client.EndpointURL().String(), "/")
}

// ListenCreated subscribes to object-created notifications for the bucket and
// forwards them until ctx is cancelled. Object keys arrive URL-encoded from
// the notification API and are decoded before delivery.
func (s *MinioStore) ListenCreated(ctx context.Context, bucket string) <-chan ObjectEvent {
	out := make(chan ObjectEvent)
	go func() {
		defer close(out)
		events := s.client.ListenBucketNotification(ctx, bucket, "", "", []string{
			string(notification.ObjectCreatedAll),
		})
		for info := range events {
			if info.Err != nil {
				select {
				case out <- ObjectEvent{Err: fmt.Errorf("bucket notification: %w", info.Err)}:
				case <-ctx.Done():
					return
				}
				continue
			}
			for _, rec := range info.Records {
				key, err := url.QueryUnescape(rec.S3.Object.Key)
				if err != nil {
					key = rec.S3.Object.Key
				}
				select {
				case out <- ObjectEvent{Bucket: rec.S3.Bucket.Name, Key: key}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// isAbsent reports whether err denotes a missing object or a bucket nothing
// has created yet. Both read as absence on the probe path, never as an outage.
func isAbsent(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket" || code == "NotFound"
}

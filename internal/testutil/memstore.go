// Package testutil provides in-memory test doubles for the object store and
// the URL signer.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/petpics/service/internal/storage"
)

// MemStore is an in-memory storage.Store. Safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	buckets map[string]map[string]memObject

	// FailPuts makes every Put fail with ErrStoreUnavailable.
	FailPuts bool
	// FailBuckets makes every EnsureBucket fail with ErrStoreUnavailable.
	FailBuckets bool
}

type memObject struct {
	data        []byte
	contentType string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{buckets: make(map[string]map[string]memObject)}
}

func (s *MemStore) EnsureBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailBuckets {
		return fmt.Errorf("ensure bucket %q: %w", bucket, storage.ErrStoreUnavailable)
	}
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]memObject)
	}
	return nil
}

func (s *MemStore) Put(_ context.Context, bucket, key string, reader io.Reader, size int64, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPuts {
		return "", fmt.Errorf("put object %q: %w", key, storage.ErrStoreUnavailable)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return "", fmt.Errorf("put object %q: %w: declared %d bytes, read %d", key, storage.ErrInvalidPayload, size, len(data))
	}
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]memObject)
	}
	s.buckets[bucket][key] = memObject{data: data, contentType: contentType}
	return s.URL(bucket, key), nil
}

func (s *MemStore) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("get object %q: %w", key, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buckets[bucket][key]
	return ok, nil
}

func (s *MemStore) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets[bucket], key)
	return nil
}

func (s *MemStore) URL(bucket, key string) string {
	return "http://store.test/" + bucket + "/" + key
}

// Object returns the stored payload and content type, with ok=false when the
// object does not exist.
func (s *MemStore) Object(bucket, key string) (data []byte, contentType string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.buckets[bucket][key]
	return obj.data, obj.contentType, ok
}

// Count returns the number of objects in the bucket.
func (s *MemStore) Count(bucket string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets[bucket])
}

// StaticSigner is a signer.Signer whose output is deterministic and
// recognizably "signed".
type StaticSigner struct{}

func (StaticSigner) Issue(_ context.Context, bucket, key string, ttl time.Duration) string {
	return fmt.Sprintf("http://store.test/%s/%s?signature=test&expires=%d", bucket, key, int64(ttl.Seconds()))
}

// ChanEvents is a storage.EventListener fed from a plain channel.
type ChanEvents struct {
	C chan storage.ObjectEvent
}

// NewChanEvents returns a ChanEvents with a buffered channel.
func NewChanEvents(buf int) *ChanEvents {
	return &ChanEvents{C: make(chan storage.ObjectEvent, buf)}
}

func (e *ChanEvents) ListenCreated(ctx context.Context, _ string) <-chan storage.ObjectEvent {
	out := make(chan storage.ObjectEvent)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-e.C:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

package image

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/petpics/service/internal/signer"
	"github.com/petpics/service/internal/storage"
)

const maxCaptionLen = 200

// MetadataRepo is the narrow interface the pipeline needs from the metadata
// repository. *Repository satisfies it; tests substitute a fake.
type MetadataRepo interface {
	Create(ctx context.Context, ownerID, objectKey, originalURL, caption string) (*Image, error)
	List(ctx context.Context) ([]*Image, error)
	GetByID(ctx context.Context, id string) (*Image, error)
	Delete(ctx context.Context, id string) error
}

// Options configures the ingestion and gallery behavior.
type Options struct {
	OriginalsBucket   string
	ThumbnailsBucket  string
	SignedURLTTL      time.Duration
	AllowedExtensions []string
}

// Service contains the upload (ingest) and gallery (reconcile) logic.
type Service struct {
	repo    MetadataRepo
	store   storage.Store
	signer  signer.Signer
	opts    Options
	allowed map[string]bool
}

// NewService creates a new image Service.
func NewService(repo MetadataRepo, store storage.Store, sgn signer.Signer, opts Options) *Service {
	allowed := make(map[string]bool, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		allowed[ext] = true
	}
	return &Service{repo: repo, store: store, signer: sgn, opts: opts, allowed: allowed}
}

// Ingest stores an uploaded image and records its metadata. The steps are
// strictly ordered: the payload must be durably stored before the metadata
// record is written, so a record can never reference a missing object. The
// reverse failure (object stored, record insert fails) leaves an orphaned
// object with no reference, which is acceptable.
//
// No thumbnail exists when Ingest returns; derivative generation is
// asynchronous and the gallery falls back to the original until it completes.
func (s *Service) Ingest(ctx context.Context, ownerID, filename, contentType string, body io.Reader, size int64, caption string) (*Image, error) {
	if !s.allowed[Ext(filename)] {
		return nil, fmt.Errorf("ingest %q: %w", filename, ErrInvalidFileType)
	}
	if len(caption) > maxCaptionLen {
		return nil, fmt.Errorf("ingest %q: %w", filename, ErrInvalidCaption)
	}

	key := NewObjectKey(filename)

	if err := s.store.EnsureBucket(ctx, s.opts.OriginalsBucket); err != nil {
		return nil, fmt.Errorf("ensure originals bucket: %w", err)
	}

	if _, err := s.store.Put(ctx, s.opts.OriginalsBucket, key, body, size, contentType); err != nil {
		return nil, fmt.Errorf("store original %q: %w: %v", key, ErrUploadFailed, err)
	}

	url := s.signer.Issue(ctx, s.opts.OriginalsBucket, key, s.opts.SignedURLTTL)

	img, err := s.repo.Create(ctx, ownerID, key, url, caption)
	if err != nil {
		// The stored object is orphaned here; garbage collection of
		// unreferenced originals is out of scope.
		return nil, fmt.Errorf("record image %q: %w", key, err)
	}
	return img, nil
}

// Gallery returns all images, most recent first, each resolved to the URL the
// caller should display. For every record it probes the thumbnails bucket:
// when a derivative exists a fresh signed URL for it is issued, otherwise the
// original's stored URL is used. Absence of a derivative is the normal state
// right after an upload and never an error.
//
// The result is recomputed on every call so signed URLs are always fresh.
func (s *Service) Gallery(ctx context.Context) ([]GalleryItem, error) {
	images, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}

	items := make([]GalleryItem, 0, len(images))
	for _, img := range images {
		item := GalleryItem{Image: *img, DisplayURL: img.OriginalURL}
		ok, err := s.store.Exists(ctx, s.opts.ThumbnailsBucket, img.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("probe thumbnail %q: %w", img.ObjectKey, err)
		}
		if ok {
			item.DisplayURL = s.signer.Issue(ctx, s.opts.ThumbnailsBucket, img.ObjectKey, s.opts.SignedURLTTL)
		}
		items = append(items, item)
	}
	return items, nil
}

// Delete removes an image: its metadata record first, then the stored
// original and (if present) thumbnail. Only the owner may delete. A failed
// object removal after the record is gone leaves orphans, same trade-off as
// a failed record insert during ingest.
func (s *Service) Delete(ctx context.Context, ownerID, imageID string) error {
	img, err := s.repo.GetByID(ctx, imageID)
	if err != nil {
		return err
	}
	if img.OwnerID != ownerID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, imageID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.opts.OriginalsBucket, img.ObjectKey); err != nil {
		return fmt.Errorf("delete original %q: %w", img.ObjectKey, err)
	}
	if err := s.store.Delete(ctx, s.opts.ThumbnailsBucket, img.ObjectKey); err != nil {
		return fmt.Errorf("delete thumbnail %q: %w", img.ObjectKey, err)
	}
	return nil
}

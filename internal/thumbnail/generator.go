// Package thumbnail generates bounded-size derivatives for uploaded images.
//
// The worker reacts to object-created events on the originals bucket, decodes
// the payload, fits it into a 150x150 box and writes the result to the
// thumbnails bucket under the identical key. That key equality is what lets
// the gallery probe for a derivative without a separate index.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/petpics/service/internal/storage"
)

// MaxDimension bounds the longest side of a generated thumbnail.
const MaxDimension = 150

// ErrUnsupportedFormat is returned when the payload cannot be decoded as an
// image. Terminal: the event must not be retried.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Generator produces thumbnails for stored originals.
type Generator struct {
	store       storage.Store
	thumbBucket string
}

// NewGenerator creates a Generator writing derivatives into thumbBucket.
func NewGenerator(store storage.Store, thumbBucket string) *Generator {
	return &Generator{store: store, thumbBucket: thumbBucket}
}

// Process reads the original at (bucket, key), generates its thumbnail and
// stores it in the thumbnails bucket under the same key. Re-processing a key
// overwrites the previous derivative, so at-least-once event delivery is safe.
//
// The thumbnail keeps the source encoding where the source format is
// re-encodable; otherwise it is written as JPEG.
func (g *Generator) Process(ctx context.Context, bucket, key string) error {
	rc, err := g.store.Get(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("fetch original %q: %w", key, err)
	}
	defer rc.Close()

	src, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode %q: %w: %v", key, ErrUnsupportedFormat, err)
	}

	// Fit preserves aspect ratio and never upscales.
	thumb := imaging.Fit(src, MaxDimension, MaxDimension, imaging.Lanczos)

	format, contentType := encodingFor(key)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return fmt.Errorf("encode thumbnail %q: %w", key, err)
	}

	if _, err := g.store.Put(ctx, g.thumbBucket, key, &buf, int64(buf.Len()), contentType); err != nil {
		return fmt.Errorf("store thumbnail %q: %w", key, err)
	}
	return nil
}

// encodingFor picks the output encoding for a key. Formats imaging cannot
// encode (webp among the allowed uploads) fall back to JPEG.
func encodingFor(key string) (imaging.Format, string) {
	format, err := imaging.FormatFromFilename(key)
	if err != nil {
		return imaging.JPEG, "image/jpeg"
	}
	switch format {
	case imaging.PNG:
		return imaging.PNG, "image/png"
	case imaging.GIF:
		return imaging.GIF, "image/gif"
	case imaging.BMP:
		return imaging.BMP, "image/bmp"
	case imaging.TIFF:
		return imaging.TIFF, "image/tiff"
	default:
		return imaging.JPEG, "image/jpeg"
	}
}

package thumbnail_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petpics/service/internal/storage"
	"github.com/petpics/service/internal/testutil"
	"github.com/petpics/service/internal/thumbnail"
)

// pngPayload encodes a solid-color PNG of the given dimensions.
func pngPayload(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func putOriginal(t *testing.T, store *testutil.MemStore, key string, payload []byte, contentType string) {
	t.Helper()
	_, err := store.Put(context.Background(), "originals", key, bytes.NewReader(payload), int64(len(payload)), contentType)
	require.NoError(t, err)
}

func decodeThumbnail(t *testing.T, store *testutil.MemStore, key string) image.Image {
	t.Helper()
	data, _, ok := store.Object("thumbnails", key)
	require.True(t, ok, "thumbnail %q must exist", key)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err, "stored thumbnail must be decodable")
	return img
}

func TestProcessBoundsLongestSide(t *testing.T) {
	store := testutil.NewMemStore()
	gen := thumbnail.NewGenerator(store, "thumbnails")

	putOriginal(t, store, "square.png", pngPayload(t, 300, 300), "image/png")
	require.NoError(t, gen.Process(context.Background(), "originals", "square.png"))

	thumb := decodeThumbnail(t, store, "square.png")
	assert.Equal(t, 150, thumb.Bounds().Dx())
	assert.Equal(t, 150, thumb.Bounds().Dy())
}

func TestProcessPreservesAspectRatio(t *testing.T) {
	store := testutil.NewMemStore()
	gen := thumbnail.NewGenerator(store, "thumbnails")

	putOriginal(t, store, "wide.png", pngPayload(t, 300, 150), "image/png")
	require.NoError(t, gen.Process(context.Background(), "originals", "wide.png"))

	thumb := decodeThumbnail(t, store, "wide.png")
	assert.Equal(t, 150, thumb.Bounds().Dx())
	assert.Equal(t, 75, thumb.Bounds().Dy())
}

func TestProcessDoesNotUpscaleSmallImages(t *testing.T) {
	store := testutil.NewMemStore()
	gen := thumbnail.NewGenerator(store, "thumbnails")

	putOriginal(t, store, "small.png", pngPayload(t, 40, 60), "image/png")
	require.NoError(t, gen.Process(context.Background(), "originals", "small.png"))

	thumb := decodeThumbnail(t, store, "small.png")
	assert.Equal(t, 40, thumb.Bounds().Dx())
	assert.Equal(t, 60, thumb.Bounds().Dy())
}

func TestProcessIsIdempotent(t *testing.T) {
	store := testutil.NewMemStore()
	gen := thumbnail.NewGenerator(store, "thumbnails")

	putOriginal(t, store, "cat.png", pngPayload(t, 300, 300), "image/png")

	require.NoError(t, gen.Process(context.Background(), "originals", "cat.png"))
	first := decodeThumbnail(t, store, "cat.png")

	// Re-delivered event: must succeed and leave a valid thumbnail.
	require.NoError(t, gen.Process(context.Background(), "originals", "cat.png"))
	second := decodeThumbnail(t, store, "cat.png")

	assert.Equal(t, first.Bounds(), second.Bounds())
	assert.Equal(t, 1, store.Count("thumbnails"))
}

func TestProcessKeepsSourceEncoding(t *testing.T) {
	store := testutil.NewMemStore()
	gen := thumbnail.NewGenerator(store, "thumbnails")

	putOriginal(t, store, "cat.png", pngPayload(t, 200, 200), "image/png")
	require.NoError(t, gen.Process(context.Background(), "originals", "cat.png"))

	data, contentType, ok := store.Object("thumbnails", "cat.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", contentType)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "thumbnail must stay PNG-encoded")
}

func TestProcessFallsBackToJPEGForUnencodableFormats(t *testing.T) {
	store := testutil.NewMemStore()
	gen := thumbnail.NewGenerator(store, "thumbnails")

	// The decoder accepts the PNG payload regardless of the key's
	// extension; webp output is not encodable, so the thumbnail lands as JPEG.
	putOriginal(t, store, "cat.webp", pngPayload(t, 200, 200), "image/webp")
	require.NoError(t, gen.Process(context.Background(), "originals", "cat.webp"))

	_, contentType, ok := store.Object("thumbnails", "cat.webp")
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestProcessRejectsUndecodablePayload(t *testing.T) {
	store := testutil.NewMemStore()
	gen := thumbnail.NewGenerator(store, "thumbnails")

	payload := []byte("definitely not an image")
	putOriginal(t, store, "junk.png", payload, "image/png")

	err := gen.Process(context.Background(), "originals", "junk.png")
	require.ErrorIs(t, err, thumbnail.ErrUnsupportedFormat)
	assert.Zero(t, store.Count("thumbnails"), "undecodable payload must not produce a derivative")
}

func TestProcessMissingOriginal(t *testing.T) {
	store := testutil.NewMemStore()
	gen := thumbnail.NewGenerator(store, "thumbnails")

	err := gen.Process(context.Background(), "originals", "ghost.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.False(t, strings.Contains(err.Error(), "unsupported"), "missing object is not a format error")
}

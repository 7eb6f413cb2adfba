package image_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petpics/service/internal/image"
	"github.com/petpics/service/internal/middleware"
	"github.com/petpics/service/internal/response"
	"github.com/petpics/service/internal/testutil"
)

func newTestHandler(repo *fakeRepo, store *testutil.MemStore, maxUpload int64) http.Handler {
	h := image.NewHandler(newTestService(repo, store), maxUpload)
	r := chi.NewRouter()
	r.Post("/images", h.Upload)
	r.Get("/gallery", h.Gallery)
	r.Delete("/images/{id}", h.Delete)
	return r
}

func multipartBody(t *testing.T, filename, caption string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	if caption != "" {
		require.NoError(t, w.WriteField("caption", caption))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func asOwner(req *http.Request, ownerID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, ownerID)
	return req.WithContext(ctx)
}

func TestUploadEndpoint(t *testing.T) {
	repo := &fakeRepo{}
	store := testutil.NewMemStore()
	handler := newTestHandler(repo, store, 16<<20)

	body, contentType := multipartBody(t, "cat.jpg", "my cat", []byte("jpeg-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, asOwner(req, "owner-1"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env struct {
		Success bool        `json:"success"`
		Data    image.Image `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "owner-1", env.Data.OwnerID)
	assert.Equal(t, "my cat", env.Data.Caption)
	assert.Equal(t, 1, store.Count("originals"))
}

func TestUploadEndpointRejectsBadExtension(t *testing.T) {
	repo := &fakeRepo{}
	store := testutil.NewMemStore()
	handler := newTestHandler(repo, store, 16<<20)

	body, contentType := multipartBody(t, "malware.exe", "", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, asOwner(req, "owner-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, store.Count("originals"))
	assert.Empty(t, repo.images)
}

func TestUploadEndpointRequiresAuthContext(t *testing.T) {
	repo := &fakeRepo{}
	store := testutil.NewMemStore()
	handler := newTestHandler(repo, store, 16<<20)

	body, contentType := multipartBody(t, "cat.jpg", "", []byte("jpeg"))
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadEndpointEnforcesSizeLimit(t *testing.T) {
	repo := &fakeRepo{}
	store := testutil.NewMemStore()
	handler := newTestHandler(repo, store, 512)

	body, contentType := multipartBody(t, "cat.jpg", "", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, asOwner(req, "owner-1"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, store.Count("originals"))
}

func TestGalleryEndpointIsPublic(t *testing.T) {
	repo := &fakeRepo{}
	store := testutil.NewMemStore()
	handler := newTestHandler(repo, store, 16<<20)

	svc := newTestService(repo, store)
	_, err := svc.Ingest(context.Background(), "owner-1", "cat.jpg", "image/jpeg",
		bytes.NewReader([]byte("jpeg")), 4, "first")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/gallery", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Success bool                `json:"success"`
		Data    []image.GalleryItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "first", env.Data[0].Caption)
	assert.NotEmpty(t, env.Data[0].DisplayURL)
}

func TestDeleteEndpointOwnerOnly(t *testing.T) {
	repo := &fakeRepo{}
	store := testutil.NewMemStore()
	handler := newTestHandler(repo, store, 16<<20)

	svc := newTestService(repo, store)
	img, err := svc.Ingest(context.Background(), "owner-1", "cat.jpg", "image/jpeg",
		bytes.NewReader([]byte("jpeg")), 4, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/images/"+img.ID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, asOwner(req, "intruder"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/images/"+img.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, asOwner(req, "owner-1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Empty(t, repo.images)
}

// Guard against the gallery caching signed URLs between requests: two
// consecutive reads must both go through the signer.
func TestGalleryRecomputesPerRequest(t *testing.T) {
	repo := &fakeRepo{}
	store := testutil.NewMemStore()
	svc := newTestService(repo, store)

	img, err := svc.Ingest(context.Background(), "owner-1", "cat.jpg", "image/jpeg",
		bytes.NewReader([]byte("jpeg")), 4, "")
	require.NoError(t, err)

	first, err := svc.Gallery(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, img.OriginalURL, first[0].DisplayURL)

	// Thumbnail lands between the two reads; the next read picks it up.
	_, err = store.Put(context.Background(), "thumbnails", img.ObjectKey,
		bytes.NewReader([]byte("thumb")), 5, "image/jpeg")
	require.NoError(t, err)

	second, err := svc.Gallery(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Contains(t, second[0].DisplayURL, "/thumbnails/")
}

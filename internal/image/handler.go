package image

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petpics/service/internal/middleware"
	"github.com/petpics/service/internal/response"
)

// Handler holds HTTP handlers for image upload and gallery endpoints.
type Handler struct {
	svc       *Service
	maxUpload int64
}

// NewHandler creates a new image Handler. maxUpload caps the upload request
// body size in bytes.
func NewHandler(svc *Service, maxUpload int64) *Handler {
	return &Handler{svc: svc, maxUpload: maxUpload}
}

// Upload godoc
//
//	@Summary		Upload an image
//	@Description	Stores the image durably and records its metadata. The thumbnail is generated asynchronously; the gallery serves the original until it is ready.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			image	formData	file	true	"Image file (png, jpg, jpeg, gif, webp)"
//	@Param			caption	formData	string	false	"Caption, max 200 characters"
//	@Success		201	{object}	response.Envelope{data=Image}
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		413	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/images [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || ownerID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if r.ContentLength > h.maxUpload {
		response.PayloadTooLarge(w, "upload exceeds the size limit")
		return
	}
	// Backstop for chunked bodies with no declared length.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, "upload exceeds the size limit")
			return
		}
		response.BadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	caption := r.FormValue("caption")
	contentType := header.Header.Get("Content-Type")

	img, err := h.svc.Ingest(r.Context(), ownerID, header.Filename, contentType, file, header.Size, caption)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidFileType):
			response.BadRequest(w, "only png, jpg, jpeg, gif and webp files are allowed")
		case errors.Is(err, ErrInvalidCaption):
			response.BadRequest(w, "caption must be at most 200 characters")
		case errors.Is(err, ErrUploadFailed):
			log.Printf("image: upload failed: %v", err)
			response.Error(w, http.StatusBadGateway, "could not store the image, try again")
		default:
			log.Printf("image: ingest failed: %v", err)
			response.InternalError(w)
		}
		return
	}

	response.Created(w, img)
}

// Gallery godoc
//
//	@Summary		List the gallery
//	@Description	Returns all images, most recent first. Each entry carries the URL to display: a signed thumbnail link when the derivative exists, the original link otherwise.
//	@Tags			images
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=[]GalleryItem}
//	@Failure		500	{object}	response.Envelope
//	@Router			/gallery [get]
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Gallery(r.Context())
	if err != nil {
		log.Printf("image: gallery failed: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, items)
}

// Delete godoc
//
//	@Summary		Delete an image
//	@Description	Removes the metadata record, the stored original and its thumbnail. Owner only.
//	@Tags			images
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Image ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/images/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || ownerID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "image not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "you can only delete your own images")
		default:
			log.Printf("image: delete failed: %v", err)
			response.InternalError(w)
		}
		return
	}
	response.OK(w, nil)
}

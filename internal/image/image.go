// Package image implements the media ingestion pipeline and gallery read path.
package image

import (
	"errors"
	"time"
)

// Image is the metadata record for one uploaded photo. The payload itself
// lives in the object store under ObjectKey; OriginalURL is the download link
// issued at upload time.
type Image struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	ObjectKey   string    `json:"objectKey"`
	Caption     string    `json:"caption,omitempty"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GalleryItem pairs a metadata record with the URL the gallery should render:
// the thumbnail when one exists, the original otherwise.
type GalleryItem struct {
	Image
	DisplayURL string `json:"displayUrl"`
}

// ErrInvalidFileType is returned when the upload's extension is not allowed.
var ErrInvalidFileType = errors.New("file type not allowed")

// ErrInvalidCaption is returned when the caption exceeds the length limit.
var ErrInvalidCaption = errors.New("caption too long")

// ErrUploadFailed is returned when the object store rejects the payload write.
var ErrUploadFailed = errors.New("upload failed")

// ErrNotFound is returned when an image record does not exist.
var ErrNotFound = errors.New("image not found")

// ErrNotOwner is returned when a caller tries to delete someone else's image.
var ErrNotOwner = errors.New("not the image owner")

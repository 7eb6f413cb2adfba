package image

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NewObjectKey derives a collision-free storage key from an uploaded file's
// name: a fresh UUIDv4 plus the lowercased extension. The original name never
// reaches the store. Files without an extension get a bare UUID key.
//
// The derivative pipeline stores thumbnails under the same key in a separate
// bucket, so the key doubles as the join between an original and its
// derivative — no extra index needed.
func NewObjectKey(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return uuid.NewString() + ext
}

// Ext returns the lowercased extension of filename without the leading dot,
// or "" when there is none.
func Ext(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return strings.TrimPrefix(ext, ".")
}

package image_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petpics/service/internal/image"
)

func TestNewObjectKeyKeepsLowercasedExtension(t *testing.T) {
	key := image.NewObjectKey("Fluffy.JPG")
	assert.True(t, strings.HasSuffix(key, ".jpg"), "key %q should end in .jpg", key)

	key = image.NewObjectKey("photo.png")
	assert.True(t, strings.HasSuffix(key, ".png"))
}

func TestNewObjectKeyWithoutExtension(t *testing.T) {
	key := image.NewObjectKey("README")
	assert.NotContains(t, key, ".")
	assert.NotEmpty(t, key)
}

func TestNewObjectKeyIsUniquePerCall(t *testing.T) {
	const n = 1000
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		key := image.NewObjectKey("cat.jpg")
		require.False(t, seen[key], "duplicate key %q after %d generations", key, i)
		seen[key] = true
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"cat.jpg", "jpg"},
		{"cat.JPEG", "jpeg"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
		{"", ""},
		{".hidden", "hidden"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, image.Ext(tt.filename), "Ext(%q)", tt.filename)
	}
}

package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestIsAbsent(t *testing.T) {
	// A gallery probe before anything was ever thumbnailed hits a bucket
	// that does not exist yet; that is absence, not a store outage.
	assert.True(t, isAbsent(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isAbsent(minio.ErrorResponse{Code: "NoSuchBucket"}))
	assert.True(t, isAbsent(minio.ErrorResponse{Code: "NotFound"}))

	assert.False(t, isAbsent(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isAbsent(errors.New("connection refused")))
}

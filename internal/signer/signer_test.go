package signer_test

import (
	"context"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petpics/service/internal/signer"
)

func TestIssueWithoutClientReturnsUnsignedURL(t *testing.T) {
	s := signer.NewPresignSigner(nil, "http://localhost:9000/")

	url := s.Issue(context.Background(), "originals", "cat.jpg", 24*time.Hour)
	assert.Equal(t, "http://localhost:9000/originals/cat.jpg", url)
}

func TestIssueFallsBackWhenPresignFails(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	// An expiry past the S3 seven-day cap makes presigning fail locally.
	// The link must still carry the canonical base, not a host-less path.
	s := signer.NewPresignSigner(client, "http://localhost:9000")
	url := s.Issue(context.Background(), "originals", "cat.jpg", 200*24*time.Hour)

	assert.Equal(t, "http://localhost:9000/originals/cat.jpg", url)
	assert.NotContains(t, url, "X-Amz-Signature=")
}

func TestIssueSignsWithClient(t *testing.T) {
	// Presigning is a local computation; no server is contacted. A fixed
	// region is required so the client skips its bucket-location lookup.
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	s := signer.NewPresignSigner(client, "")
	url := s.Issue(context.Background(), "thumbnails", "cat.jpg", time.Hour)

	assert.Contains(t, url, "/thumbnails/cat.jpg")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=3600")
}

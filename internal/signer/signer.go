// Package signer issues time-limited signed download URLs for stored objects.
//
// Signing happens with the store-held credentials; the store itself verifies
// the signature on access. When signing is unavailable the issuer degrades to
// the canonical unsigned URL instead of failing the read path — galleries keep
// rendering even with broken key material.
package signer

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// Signer issues a read URL for an object. Implementations never fail:
// a degraded (unsigned) URL is always preferable to an error on the read path.
type Signer interface {
	Issue(ctx context.Context, bucket, key string, ttl time.Duration) string
}

// PresignSigner issues S3 presigned GET URLs via a minio client.
type PresignSigner struct {
	client *minio.Client
	base   string
}

// NewPresignSigner returns a Signer backed by the given client.
// A nil client means no signing credentials are configured; every issued URL
// is then the canonical unsigned one under unsignedBase.
func NewPresignSigner(client *minio.Client, unsignedBase string) *PresignSigner {
	return &PresignSigner{
		client: client,
		base:   strings.TrimRight(unsignedBase, "/"),
	}
}

// Issue returns a presigned GET URL valid for ttl, or the unsigned canonical
// URL when presigning is not possible.
func (s *PresignSigner) Issue(ctx context.Context, bucket, key string, ttl time.Duration) string {
	if s.client == nil {
		return s.unsigned(bucket, key)
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		log.Printf("signer: presign %s/%s failed, serving unsigned URL: %v", bucket, key, err)
		return s.unsigned(bucket, key)
	}
	return u.String()
}

func (s *PresignSigner) unsigned(bucket, key string) string {
	return s.base + "/" + bucket + "/" + key
}

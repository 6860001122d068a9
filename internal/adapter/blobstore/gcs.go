package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// GCS stores blobs as objects in a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS wraps an existing client. prefix is prepended to every object name.
func NewGCS(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads data and returns a gs://bucket/object reference.
func (g *GCS) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	name := g.prefix + key

	wc := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("gcs write %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", name, err)
	}

	return objectRef(g.bucket, name), nil
}

// Open streams an object previously returned by Put.
func (g *GCS) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	bucket, name, err := parseObjectRef(ref)
	if err != nil || bucket != g.bucket {
		return nil, fmt.Errorf("blob %q: %w", ref, domain.ErrNotFound)
	}

	r, err := g.client.Bucket(bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("blob %q: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", name, err)
	}
	return r, nil
}

func objectRef(bucket, name string) string {
	return "gs://" + bucket + "/" + name
}

func parseObjectRef(ref string) (bucket, name string, err error) {
	rest, ok := strings.CutPrefix(ref, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// reference")
	}
	bucket, name, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || name == "" {
		return "", "", fmt.Errorf("malformed gs:// reference")
	}
	return bucket, name, nil
}

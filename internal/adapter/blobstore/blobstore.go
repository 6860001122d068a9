// Package blobstore keeps captured preview images. Local writes to a
// directory; GCS writes to a Google Cloud Storage bucket.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

const localScheme = "local://"

// Local stores blobs as files under a root directory.
type Local struct {
	dir string
}

// NewLocal creates the root directory if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
	}
	return &Local{dir: dir}, nil
}

// Put writes data under key and returns a local:// reference.
func (l *Local) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", key, err)
	}
	return localScheme + key, nil
}

// Open reads a blob previously returned by Put.
func (l *Local) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, ok := strings.CutPrefix(ref, localScheme)
	if !ok {
		return nil, fmt.Errorf("blob %q: %w", ref, domain.ErrNotFound)
	}
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %q: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open blob %q: %w", ref, err)
	}
	return f, nil
}

func (l *Local) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", domain.NewValidationError("key", "must be a plain file name")
	}
	return filepath.Join(l.dir, key), nil
}

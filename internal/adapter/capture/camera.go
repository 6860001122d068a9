package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// Camera opens an exclusive frame stream from a capture device.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields frames until closed.
type Stream interface {
	Snapshot(ctx context.Context) ([]byte, error)
	Close() error
}

// NoCamera is a station without a capture device.
type NoCamera struct{}

// Open always reports the camera as unavailable.
func (NoCamera) Open(context.Context) (Stream, error) {
	return nil, domain.ErrCameraUnavailable
}

// HTTPCamera is an IP camera that serves a JPEG still at a snapshot URL.
type HTTPCamera struct {
	url        string
	httpClient *http.Client
	maxBytes   int64
}

// NewHTTPCamera creates an HTTPCamera with the given request timeout.
func NewHTTPCamera(url string, timeout time.Duration, maxBytes int64) *HTTPCamera {
	return &HTTPCamera{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

// Open probes the camera with a HEAD request. Any failure means unavailable.
func (c *HTTPCamera) Open(ctx context.Context) (Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("camera: %w: %v", domain.ErrCameraUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera: %w: %v", domain.ErrCameraUnavailable, err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("camera: %w: permission denied (%d)", domain.ErrCameraUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("camera: %w: status %d", domain.ErrCameraUnavailable, resp.StatusCode)
	}

	return &httpStream{cam: c}, nil
}

type httpStream struct {
	cam *HTTPCamera
}

func (s *httpStream) Snapshot(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cam.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}

	resp, err := s.cam.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cam.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("snapshot: empty frame")
	}
	return data, nil
}

func (s *httpStream) Close() error {
	s.cam.httpClient.CloseIdleConnections()
	return nil
}

package capture

import (
	"sync"
)

// CameraSession holds the camera stream between begin and capture-or-cancel.
// A session whose camera could not be opened is simulated: it has no stream
// and capture produces a placeholder frame.
type CameraSession struct {
	stream Stream
	reason error

	mu       sync.Mutex
	released bool
}

// Simulated reports whether the session runs without a real stream.
func (s *CameraSession) Simulated() bool { return s.stream == nil }

// FallbackReason is the acquisition error that forced simulation, if any.
func (s *CameraSession) FallbackReason() error { return s.reason }

// Active reports whether the session still holds an open stream.
func (s *CameraSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil && !s.released
}

// Release closes the stream. Capture, cancel and teardown all end here;
// calls after the first are no-ops.
func (s *CameraSession) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true

	if s.stream == nil {
		return nil
	}
	return s.stream.Close()
}

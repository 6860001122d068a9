package verification

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// State is a stage of the verification workflow.
type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateScanning   State = "scanning"
	StateProcessing State = "processing"
	StateResult     State = "result"
)

func (s State) String() string { return string(s) }

// Busy reports whether a workflow owns the machine in this state.
func (s State) Busy() bool { return s == StateScanning || s == StateProcessing }

// ErrClosed is returned by every operation on a torn-down machine.
var ErrClosed = fmt.Errorf("studio session closed: %w", domain.ErrNotFound)

var errNeedsPass = errors.New("passport requires a passed verdict")

// View is a point-in-time copy of a machine, safe to hand to callers.
type View struct {
	ID           uuid.UUID              `json:"id"`
	State        State                  `json:"state"`
	Modality     domain.Modality        `json:"modality"`
	FailMode     bool                   `json:"failMode"`
	Session      *domain.CaptureSession `json:"session,omitempty"`
	Verdict      *domain.Verdict        `json:"verdict,omitempty"`
	CameraActive bool                   `json:"cameraActive"`
	Simulated    bool                   `json:"simulated"`
	Quarantined  bool                   `json:"quarantined"`
	LastError    string                 `json:"lastError,omitempty"`
}

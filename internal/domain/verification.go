package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ManualFields are the hand-entered batch fields. Dates are ISO YYYY-MM-DD.
type ManualFields struct {
	BatchID         string `json:"batchId"`
	ExpiryDate      string `json:"expiryDate"`
	ManufactureDate string `json:"manufactureDate"`
}

// ImagePreview describes a captured or uploaded picture. Ref points into the blob store.
type ImagePreview struct {
	Ref         string `json:"ref"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Decoded     bool   `json:"decoded"`
	Simulated   bool   `json:"simulated"`
}

// CaptureSession is the evidence gathered for one verification attempt.
type CaptureSession struct {
	ID            uuid.UUID     `json:"id"`
	Modality      Modality      `json:"modality"`
	Preview       *ImagePreview `json:"preview,omitempty"`
	ExtractedText string        `json:"extractedText,omitempty"`
	Manual        *ManualFields `json:"manual,omitempty"`
	StartedAt     time.Time     `json:"startedAt"`
}

// NewCaptureSession starts an empty session for the given modality.
func NewCaptureSession(m Modality, now time.Time) *CaptureSession {
	return &CaptureSession{
		ID:        uuid.New(),
		Modality:  m,
		StartedAt: now,
	}
}

// Clone returns a deep copy of the session.
func (s *CaptureSession) Clone() *CaptureSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.Preview != nil {
		p := *s.Preview
		c.Preview = &p
	}
	if s.Manual != nil {
		m := *s.Manual
		c.Manual = &m
	}
	return &c
}

// Verdict is the outcome of analysing one capture session.
// It is computed once and never mutated; Clone hands out independent copies.
type Verdict struct {
	Outcome       Outcome  `json:"outcome"`
	Confidence    float64  `json:"confidence"`
	AnalysisLines []string `json:"analysisLines"`
	Issues        []string `json:"issues"`
}

// Passed reports whether the verdict outcome is passed.
func (v Verdict) Passed() bool { return v.Outcome == OutcomePassed }

// Clone returns a copy that shares no slices with v.
func (v Verdict) Clone() Verdict {
	v.AnalysisLines = slices.Clone(v.AnalysisLines)
	v.Issues = slices.Clone(v.Issues)
	return v
}

// Actor is the opaque descriptor of whoever triggered a dispatch.
type Actor struct {
	Label  string `json:"label"`
	RoleID string `json:"roleId"`
}

// IsZero reports whether no actor was resolved.
func (a Actor) IsZero() bool { return a.Label == "" && a.RoleID == "" }

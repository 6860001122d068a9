// Package analysis turns a capture session into a verdict. Image modalities go
// through a Detector; manual entries are checked by deterministic field rules.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// Detector reads a captured image and judges it. ScriptedDetector is the only
// implementation today; a real recogniser plugs in here.
type Detector interface {
	Extract(ctx context.Context, modality domain.Modality, preview *domain.ImagePreview) (string, error)
	Analyze(ctx context.Context, modality domain.Modality, text string, failMode bool) (domain.Verdict, error)
}

// Engine routes a session to the detector or to the manual rules.
type Engine struct {
	detector Detector
	rules    ManualRules
	clock    clockwork.Clock
	loc      *time.Location
	log      *slog.Logger
}

// NewEngine creates an Engine. loc decides the calendar day used for date rules.
func NewEngine(log *slog.Logger, detector Detector, clock clockwork.Clock, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		detector: detector,
		clock:    clock,
		loc:      loc,
		log:      log.With("service", "analysis"),
	}
}

// Today returns the current calendar date as YYYY-MM-DD.
func (e *Engine) Today() string {
	return e.clock.Now().In(e.loc).Format(domain.DateLayout)
}

// Extract produces the text block read from an image session.
func (e *Engine) Extract(ctx context.Context, session *domain.CaptureSession) (text string, err error) {
	if session == nil || !session.Modality.IsImage() {
		return "", fmt.Errorf("extract: %w: modality has no image", domain.ErrAnalysisFailed)
	}

	defer e.recoverInto(ctx, "extract", &err)

	text, err = e.detector.Extract(ctx, session.Modality, session.Preview)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w: %v", session.Modality, domain.ErrAnalysisFailed, err)
	}
	return text, nil
}

// Evaluate computes the verdict for a session. Manual sessions never fail with
// an error: invalid fields are reported as issues of a failed verdict.
func (e *Engine) Evaluate(ctx context.Context, session *domain.CaptureSession, failMode bool) (v domain.Verdict, err error) {
	if session == nil {
		return domain.Verdict{}, fmt.Errorf("evaluate: %w: no session", domain.ErrAnalysisFailed)
	}

	if session.Modality == domain.ModalityManual {
		var fields domain.ManualFields
		if session.Manual != nil {
			fields = *session.Manual
		}
		return e.rules.Evaluate(fields, e.Today()), nil
	}

	defer e.recoverInto(ctx, "analyze", &err)

	v, err = e.detector.Analyze(ctx, session.Modality, session.ExtractedText, failMode)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("analyze %s: %w: %v", session.Modality, domain.ErrAnalysisFailed, err)
	}
	return v.Clone(), nil
}

func (e *Engine) recoverInto(ctx context.Context, stage string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	e.log.ErrorContext(ctx, "detector panicked",
		slog.String("stage", stage),
		slog.Any("panic", r),
	)
	*err = fmt.Errorf("%s: %w: %v", stage, domain.ErrAnalysisFailed, r)
}

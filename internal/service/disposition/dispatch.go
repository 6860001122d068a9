package disposition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/internal/service/analysis"
)

// Batch references used when a session carries none.
const (
	ManualBatchFallback   = "MANUAL"
	EscalateBatchFallback = "SCANNED"
)

// Input is one finished verification to record.
type Input struct {
	Verdict       domain.Verdict
	Session       *domain.CaptureSession
	Actor         domain.Actor
	Forced        bool
	ViewportWidth int
	// AlreadyQuarantined marks a batch the automatic dispatch already
	// queued. Only the audit entry is written.
	AlreadyQuarantined bool
}

// Result reports which records were written. It is informational only;
// failures are logged, never returned.
type Result struct {
	Audit       *domain.AuditLogEntry
	Quarantine  *domain.QuarantineEntry
	Quarantined bool
}

// Dispatch appends exactly one activity-log entry and, when the verdict
// failed or the caller forced it, exactly one quarantine entry. The
// quarantine entry is only written after the audit entry was stored and
// never for a batch that is already queued.
func (s *Service) Dispatch(ctx context.Context, in Input) Result {
	ctx, cancel := s.detached(ctx)
	defer cancel()

	var res Result

	batch := batchReference(in.Session, in.Forced)
	quarantine := (in.Forced || !in.Verdict.Passed()) && !in.AlreadyQuarantined

	e := s.entry(in.Actor, auditAction(in.Session, in.Forced), batch, resultLabel(in.Verdict, in.Forced), in.ViewportWidth)
	stored, err := s.audit.Append(ctx, e)
	if err != nil {
		s.log.ErrorContext(ctx, "activity log append failed",
			slog.String("batch", batch),
			slog.String("action", e.Action.String()),
			slog.String("error", err.Error()),
		)
		return res
	}
	res.Audit = &stored
	res.Quarantined = in.AlreadyQuarantined

	s.log.InfoContext(ctx, "verification recorded",
		slog.String("batch", batch),
		slog.String("action", stored.Action.String()),
		slog.String("result", stored.Result),
		slog.String("device", stored.Device.String()),
	)

	if !quarantine {
		return res
	}

	q, err := s.quarantine.Append(ctx, domain.QuarantineEntry{
		BatchRef:     batch,
		ProductLabel: productLabel(in.Session),
		Reason:       quarantineReason(in.Forced),
		DateFiled:    s.clock.Now().In(s.opts.Location).Format(domain.DateLayout),
		Status:       domain.QuarantineStatusPending,
		Officer:      in.Actor.Label,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "quarantine append failed",
			slog.String("batch", batch),
			slog.String("error", err.Error()),
		)
		return res
	}
	res.Quarantine = &q
	res.Quarantined = true

	s.log.WarnContext(ctx, "batch quarantined",
		slog.String("batch", batch),
		slog.String("reason", q.Reason),
		slog.String("officer", q.Officer),
	)

	s.alert(ctx, domain.Notification{
		Type:     domain.NotificationCritical,
		Message:  fmt.Sprintf("Batch %s moved to Quarantine", batch),
		Category: notificationCategory,
		Time:     s.clock.Now().UTC(),
	})

	return res
}

func (s *Service) alert(ctx context.Context, n domain.Notification) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Publish(ctx, n); err != nil {
		s.log.ErrorContext(ctx, "notification publish failed",
			slog.String("type", n.Type.String()),
			slog.String("error", err.Error()),
		)
	}
}

func auditAction(session *domain.CaptureSession, forced bool) domain.AuditAction {
	if forced {
		return domain.AuditActionManualQuarantine
	}
	if session == nil {
		return domain.AuditActionDocVerify
	}
	return domain.ActionForModality(session.Modality)
}

func resultLabel(v domain.Verdict, forced bool) string {
	switch {
	case forced:
		return domain.ResultQuarantined
	case v.Passed():
		return domain.ResultPassed
	default:
		return domain.ResultFailed
	}
}

func quarantineReason(forced bool) string {
	if forced {
		return domain.ReasonManualAction
	}
	return domain.ReasonVerificationFailed
}

// batchReference picks the batch a record is filed under: the entered
// batch for manual sessions, the batch read from the extracted text for
// image sessions, else a fallback marker.
func batchReference(session *domain.CaptureSession, forced bool) string {
	var ref string
	if session != nil {
		switch {
		case session.Manual != nil:
			ref = strings.TrimSpace(session.Manual.BatchID)
		case session.ExtractedText != "":
			ref = analysis.BatchReference(session.ExtractedText)
		}
	}
	if ref != "" {
		return ref
	}

	switch {
	case forced:
		return EscalateBatchFallback
	case session != nil && session.Modality == domain.ModalityManual:
		return ManualBatchFallback
	default:
		return analysis.UnknownBatch
	}
}

func productLabel(session *domain.CaptureSession) string {
	if session == nil {
		return analysis.UnknownProduct
	}
	return analysis.ProductLabel(session.ExtractedText)
}

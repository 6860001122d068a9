package disposition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// ResolveInput is a quarantine action taken by an officer.
type ResolveInput struct {
	EntryID       uuid.UUID
	Status        domain.QuarantineStatus
	Actor         domain.Actor
	ViewportWidth int
}

// Validate checks all fields and collects all errors.
func (i ResolveInput) Validate() error {
	var errs []domain.FieldError
	if i.EntryID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if !i.Status.IsValid() || i.Status == domain.QuarantineStatusPending {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be Destroyed, Returned or Retest"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// Resolve removes an entry from the quarantine queue and logs the action
// taken on it. Unlike Dispatch, errors are returned: the caller is an
// operator waiting on the outcome.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (domain.QuarantineEntry, error) {
	if err := in.Validate(); err != nil {
		return domain.QuarantineEntry{}, err
	}

	removed, err := s.quarantine.Delete(ctx, in.EntryID)
	if err != nil {
		return domain.QuarantineEntry{}, fmt.Errorf("resolve quarantine entry: %w", err)
	}
	removed.Status = in.Status

	e := s.entry(in.Actor, domain.AuditActionQuarantineAction, removed.BatchRef, in.Status.String(), in.ViewportWidth)
	if _, err := s.audit.Append(ctx, e); err != nil {
		s.log.ErrorContext(ctx, "quarantine action log append failed",
			slog.String("batch", removed.BatchRef),
			slog.String("error", err.Error()),
		)
	}

	s.log.InfoContext(ctx, "quarantine entry resolved",
		slog.String("batch", removed.BatchRef),
		slog.String("status", in.Status.String()),
		slog.String("officer", in.Actor.Label),
	)

	return removed, nil
}

// Package disposition records verdicts: one activity-log entry per action
// and, on failure or escalation, one quarantine entry plus a CRITICAL alert.
package disposition

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

const (
	// DefaultTimeout bounds one dispatch when Options.Timeout is zero.
	DefaultTimeout = 5 * time.Second

	notificationCategory = "System"
)

type activityLog interface {
	Append(ctx context.Context, e domain.AuditLogEntry) (domain.AuditLogEntry, error)
}

type quarantineQueue interface {
	Append(ctx context.Context, e domain.QuarantineEntry) (domain.QuarantineEntry, error)
	Delete(ctx context.Context, id uuid.UUID) (domain.QuarantineEntry, error)
}

type alertSink interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Options tune how records are stamped.
type Options struct {
	Location         *time.Location
	MobileBreakpoint int
	Timeout          time.Duration
}

// Service is the disposition dispatcher.
type Service struct {
	audit      activityLog
	quarantine quarantineQueue
	alerts     alertSink
	clock      clockwork.Clock
	opts       Options
	log        *slog.Logger
}

// NewService creates a dispatcher. alerts may be nil.
func NewService(
	log *slog.Logger,
	audit activityLog,
	quarantine quarantineQueue,
	alerts alertSink,
	clock clockwork.Clock,
	opts Options,
) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Service{
		audit:      audit,
		quarantine: quarantine,
		alerts:     alerts,
		clock:      clock,
		opts:       opts,
		log:        log.With("service", "disposition"),
	}
}

// detached keeps a dispatch alive after the caller's workflow is torn down.
func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
}

func (s *Service) entry(actor domain.Actor, action domain.AuditAction, batch, result string, viewport int) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ActorLabel: actor.Label,
		ActorRole:  s.roleLabel(actor.RoleID),
		Action:     action,
		BatchRef:   batch,
		Result:     result,
		Time:       s.clock.Now().In(s.opts.Location).Format(domain.TimeOfDayLayout),
		Device:     domain.DeviceForViewport(viewport, s.opts.MobileBreakpoint),
	}
}

// roleLabel turns a role id into its display form: "pharmacy" -> "Pharmacy".
// A Caser is stateful, so each call gets its own.
func (s *Service) roleLabel(roleID string) string {
	return cases.Title(language.English).String(strings.TrimSpace(roleID))
}

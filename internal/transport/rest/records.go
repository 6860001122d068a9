package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/internal/service/disposition"
	"github.com/2400030292/MedGuard-AI/internal/transport/middleware"
	"github.com/2400030292/MedGuard-AI/pkg/ctxutil"
)

type observable[T any] interface {
	List(ctx context.Context) ([]T, error)
	Observe(ctx context.Context) (<-chan domain.LiveSnapshot[T], error)
}

type notificationFeed interface {
	Recent() []domain.Notification
	Subscribe(ctx context.Context) (<-chan domain.Notification, error)
}

type quarantineResolver interface {
	Resolve(ctx context.Context, in disposition.ResolveInput) (domain.QuarantineEntry, error)
}

// RecordsHandler serves the activity log, the quarantine queue and the
// notification feed, both as snapshots and as live SSE streams.
type RecordsHandler struct {
	activity      observable[domain.AuditLogEntry]
	quarantine    observable[domain.QuarantineEntry]
	notifications notificationFeed
	resolver      quarantineResolver
	log           *slog.Logger
}

// NewRecordsHandler creates a RecordsHandler.
func NewRecordsHandler(
	activity observable[domain.AuditLogEntry],
	quarantine observable[domain.QuarantineEntry],
	notifications notificationFeed,
	resolver quarantineResolver,
	logger *slog.Logger,
) *RecordsHandler {
	return &RecordsHandler{
		activity:      activity,
		quarantine:    quarantine,
		notifications: notifications,
		resolver:      resolver,
		log:           logger.With("handler", "records"),
	}
}

// quarantineView adds the derived queue length to a snapshot.
type quarantineView struct {
	Items  []domain.QuarantineEntry `json:"items"`
	Count  int                      `json:"count"`
	Status domain.ConnectionStatus  `json:"status"`
}

func toQuarantineView(s domain.LiveSnapshot[domain.QuarantineEntry]) any {
	items := s.Items
	if items == nil {
		items = []domain.QuarantineEntry{}
	}
	return quarantineView{Items: items, Count: len(items), Status: s.Status}
}

func toActivityView(s domain.LiveSnapshot[domain.AuditLogEntry]) any {
	if s.Items == nil {
		s.Items = []domain.AuditLogEntry{}
	}
	return s
}

type resolveRequest struct {
	Status domain.QuarantineStatus `json:"status" validate:"required,oneof=Destroyed Returned Retest"`
}

// ActivityLog handles GET /api/activity-log.
func (h *RecordsHandler) ActivityLog(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r) {
		return
	}
	items, err := h.activity.List(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(domain.LiveSnapshot[domain.AuditLogEntry]{Items: items, Status: domain.ConnectionLive}))
}

// ActivityLogStream handles GET /api/activity-log/stream.
func (h *RecordsHandler) ActivityLogStream(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r) {
		return
	}
	snaps, err := h.activity.Observe(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	streamSSE(h.log, w, r, "activity", snaps, toActivityView)
}

// Quarantine handles GET /api/quarantine.
func (h *RecordsHandler) Quarantine(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r) {
		return
	}
	items, err := h.quarantine.List(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuarantineView(domain.LiveSnapshot[domain.QuarantineEntry]{Items: items, Status: domain.ConnectionLive}))
}

// QuarantineStream handles GET /api/quarantine/stream.
func (h *RecordsHandler) QuarantineStream(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r) {
		return
	}
	snaps, err := h.quarantine.Observe(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	streamSSE(h.log, w, r, "quarantine", snaps, toQuarantineView)
}

// Resolve handles POST /api/quarantine/{id}/resolve.
func (h *RecordsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r) {
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("id", "must be a UUID"))
		return
	}
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	roleID, label, _ := ctxutil.ActorFromCtx(r.Context())
	entry, err := h.resolver.Resolve(r.Context(), disposition.ResolveInput{
		EntryID:       id,
		Status:        req.Status,
		Actor:         domain.Actor{Label: label, RoleID: roleID},
		ViewportWidth: ctxutil.ViewportWidthFromCtx(r.Context()),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Notifications handles GET /api/notifications.
func (h *RecordsHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r) {
		return
	}
	recent := h.notifications.Recent()
	if recent == nil {
		recent = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, recent)
}

// NotificationStream handles GET /api/notifications/stream.
func (h *RecordsHandler) NotificationStream(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r) {
		return
	}
	events, err := h.notifications.Subscribe(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	streamSSE(h.log, w, r, "notification", events, func(n domain.Notification) any { return n })
}

func (h *RecordsHandler) signedIn(w http.ResponseWriter, r *http.Request) bool {
	if err := middleware.RequireActor(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return false
	}
	return true
}

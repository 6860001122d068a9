package rest

import (
	"net/http"

	"github.com/2400030292/MedGuard-AI/internal/transport/middleware"
)

// Handlers groups every REST handler the router mounts.
type Handlers struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	Studio  *StudioHandler
	Records *RecordsHandler
	Catalog *CatalogHandler
}

// NewRouter mounts the routes. login wraps POST /auth/login only (its
// tighter rate limit); chain wraps everything.
func NewRouter(h Handlers, chain, login middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.Handle("POST /auth/login", login(http.HandlerFunc(h.Auth.Login)))
	mux.HandleFunc("GET /auth/roles", h.Auth.Roles)

	mux.HandleFunc("POST /api/studio", h.Studio.Open)
	mux.HandleFunc("GET /api/studio/{id}", h.Studio.Get)
	mux.HandleFunc("DELETE /api/studio/{id}", h.Studio.Delete)
	mux.HandleFunc("POST /api/studio/{id}/modality", h.Studio.SelectModality)
	mux.HandleFunc("POST /api/studio/{id}/camera", h.Studio.BeginCamera)
	mux.HandleFunc("POST /api/studio/{id}/camera/capture", h.Studio.Capture)
	mux.HandleFunc("POST /api/studio/{id}/camera/cancel", h.Studio.CancelCamera)
	mux.HandleFunc("POST /api/studio/{id}/upload", h.Studio.Upload)
	mux.HandleFunc("POST /api/studio/{id}/manual", h.Studio.SubmitManual)
	mux.HandleFunc("POST /api/studio/{id}/scan-another", h.Studio.ScanAnother)
	mux.HandleFunc("POST /api/studio/{id}/quarantine", h.Studio.Escalate)
	mux.HandleFunc("GET /api/studio/{id}/passport", h.Studio.Passport)
	mux.HandleFunc("GET /api/studio/{id}/preview", h.Studio.Preview)

	mux.HandleFunc("GET /api/activity-log", h.Records.ActivityLog)
	mux.HandleFunc("GET /api/activity-log/stream", h.Records.ActivityLogStream)
	mux.HandleFunc("GET /api/quarantine", h.Records.Quarantine)
	mux.HandleFunc("GET /api/quarantine/stream", h.Records.QuarantineStream)
	mux.HandleFunc("POST /api/quarantine/{id}/resolve", h.Records.Resolve)
	mux.HandleFunc("GET /api/notifications", h.Records.Notifications)
	mux.HandleFunc("GET /api/notifications/stream", h.Records.NotificationStream)

	mux.HandleFunc("GET /api/standards", h.Catalog.Search)
	mux.HandleFunc("GET /api/standards/{id}", h.Catalog.Get)
	mux.HandleFunc("GET /api/suppliers", h.Catalog.Suppliers)
	mux.HandleFunc("GET /api/suppliers/{id}", h.Catalog.Supplier)

	return chain(mux)
}

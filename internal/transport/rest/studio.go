package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/internal/service/verification"
	"github.com/2400030292/MedGuard-AI/internal/transport/middleware"
)

type studioService interface {
	Open(ctx context.Context) (*verification.Machine, error)
	Get(ctx context.Context, id uuid.UUID) (*verification.Machine, error)
	Close(ctx context.Context, id uuid.UUID) error
}

type previewSource interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// maxLongPoll caps how long GET /api/studio/{id}?wait= holds a request.
const maxLongPoll = 30 * time.Second

// StudioHandler drives verification studio sessions.
type StudioHandler struct {
	svc       studioService
	previews  previewSource
	maxUpload int64
	log       *slog.Logger
}

// NewStudioHandler creates a StudioHandler. maxUpload bounds multipart uploads.
func NewStudioHandler(svc studioService, previews previewSource, maxUpload int64, logger *slog.Logger) *StudioHandler {
	return &StudioHandler{svc: svc, previews: previews, maxUpload: maxUpload, log: logger.With("handler", "studio")}
}

type modalityRequest struct {
	Modality domain.Modality `json:"modality" validate:"required"`
	FailMode *bool           `json:"failMode"`
}

type manualRequest struct {
	BatchID         string `json:"batchId"         validate:"max=64"`
	ExpiryDate      string `json:"expiryDate"      validate:"omitempty,datetime=2006-01-02"`
	ManufactureDate string `json:"manufactureDate" validate:"omitempty,datetime=2006-01-02"`
}

// Open handles POST /api/studio.
func (h *StudioHandler) Open(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireActor(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	m, err := h.svc.Open(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m.View())
}

// Get handles GET /api/studio/{id}. With ?wait=<state> it holds the request
// until the machine reaches that state (at most ?timeout=, capped at 30s).
func (h *StudioHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	if want := r.URL.Query().Get("wait"); want != "" {
		timeout := maxLongPoll
		if raw := r.URL.Query().Get("timeout"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				handleError(h.log, w, r, domain.NewValidationError("timeout", "must be a positive duration"))
				return
			}
			timeout = min(d, maxLongPoll)
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		// A timeout still answers with the current view.
		_ = m.WaitForState(ctx, verification.State(want))
	}

	writeJSON(w, http.StatusOK, m.View())
}

// Delete handles DELETE /api/studio/{id}.
func (h *StudioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studioID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Close(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectModality handles POST /api/studio/{id}/modality.
func (h *StudioHandler) SelectModality(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req modalityRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	view, err := m.SelectModality(req.Modality)
	if err == nil && req.FailMode != nil {
		view, err = m.SetFailMode(*req.FailMode)
	}
	h.respond(w, r, view, err)
}

// BeginCamera handles POST /api/studio/{id}/camera.
func (h *StudioHandler) BeginCamera(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	view, err := m.BeginCameraCapture(r.Context())
	h.respond(w, r, view, err)
}

// Capture handles POST /api/studio/{id}/camera/capture.
func (h *StudioHandler) Capture(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	view, err := m.Capture(r.Context())
	h.respond(w, r, view, err)
}

// CancelCamera handles POST /api/studio/{id}/camera/cancel.
func (h *StudioHandler) CancelCamera(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	view, err := m.Cancel()
	h.respond(w, r, view, err)
}

// Upload handles POST /api/studio/{id}/upload (multipart field "file").
func (h *StudioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<16))
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		handleError(h.log, w, r, domain.NewValidationError("file", "required"))
		return
	}
	defer file.Close()

	view, err := m.IngestFile(r.Context(), file, header.Filename)
	h.respond(w, r, view, err)
}

// SubmitManual handles POST /api/studio/{id}/manual.
func (h *StudioHandler) SubmitManual(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req manualRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	view, err := m.SubmitManual(r.Context(), req.BatchID, req.ExpiryDate, req.ManufactureDate)
	h.respond(w, r, view, err)
}

// ScanAnother handles POST /api/studio/{id}/scan-another.
func (h *StudioHandler) ScanAnother(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	view, err := m.ScanAnother()
	h.respond(w, r, view, err)
}

// Escalate handles POST /api/studio/{id}/quarantine.
func (h *StudioHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	view, err := m.Escalate(r.Context())
	h.respond(w, r, view, err)
}

// Passport handles GET /api/studio/{id}/passport.
func (h *StudioHandler) Passport(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	p, err := m.ViewPassport(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Preview handles GET /api/studio/{id}/preview and streams the captured image.
func (h *StudioHandler) Preview(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	view := m.View()
	if view.Session == nil || view.Session.Preview == nil {
		writeError(w, http.StatusNotFound, "no preview captured")
		return
	}
	p := view.Session.Preview

	rc, err := h.previews.Open(r.Context(), p.Ref)
	if err != nil {
		handleError(h.log, w, r, fmt.Errorf("open preview: %w", err))
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.WarnContext(r.Context(), "stream preview", slog.String("error", err.Error()))
	}
}

func (h *StudioHandler) respond(w http.ResponseWriter, r *http.Request, view verification.View, err error) {
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *StudioHandler) studioID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if err := middleware.RequireActor(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("id", "must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *StudioHandler) machine(w http.ResponseWriter, r *http.Request) (*verification.Machine, bool) {
	id, ok := h.studioID(w, r)
	if !ok {
		return nil, false
	}
	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return nil, false
	}
	return m, true
}

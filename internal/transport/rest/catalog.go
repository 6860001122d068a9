package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/internal/transport/middleware"
)

type catalogService interface {
	Search(ctx context.Context, term string) []domain.DrugStandard
	Standard(id string) (domain.DrugStandard, error)
	Suppliers(status domain.SupplierStatus) ([]domain.Supplier, error)
	Supplier(id int) (domain.Supplier, error)
}

// CatalogHandler serves the drug standards library and supplier ratings.
type CatalogHandler struct {
	svc catalogService
	log *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(svc catalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: logger.With("handler", "catalog")}
}

// Search handles GET /api/standards?q=. Searches are recorded in the activity log.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireActor(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Search(r.Context(), r.URL.Query().Get("q")))
}

// Get handles GET /api/standards/{id}.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireActor(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	std, err := h.svc.Standard(r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, std)
}

// Suppliers handles GET /api/suppliers?status=.
func (h *CatalogHandler) Suppliers(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireActor(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	list, err := h.svc.Suppliers(domain.SupplierStatus(r.URL.Query().Get("status")))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Supplier handles GET /api/suppliers/{id}.
func (h *CatalogHandler) Supplier(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireActor(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("id", "must be a number"))
		return
	}
	sup, err := h.svc.Supplier(id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

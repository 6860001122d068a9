package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const storePingTimeout = 3 * time.Second

type dbPinger interface {
	Ping(ctx context.Context) error
}

type sessionCounter interface {
	Len() int
}

// HealthHandler serves the orchestrator probes and the operator health page.
type HealthHandler struct {
	db      dbPinger // nil on the in-memory store
	studios sessionCounter
	version string
}

// NewHealthHandler takes a nil db when the records live in memory.
func NewHealthHandler(db dbPinger, studios sessionCounter, version string) *HealthHandler {
	return &HealthHandler{db: db, studios: studios, version: version}
}

// HealthResponse is the body of /live, /ready and /health.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Live answers 200 while the process can serve HTTP at all.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Ready answers 503 while the record store is unreachable, so traffic is
// held back from an instance that could not log or quarantine a batch.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	store := h.store(r.Context())
	writeJSON(w, statusCode(store), HealthResponse{Status: store.Status, Timestamp: time.Now()})
}

// Health reports every component with the build version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	store := h.store(r.Context())
	components := map[string]CompStatus{"store": store}
	if h.studios != nil {
		components["studio"] = CompStatus{Status: "ok", Detail: strconv.Itoa(h.studios.Len()) + " open"}
	}

	writeJSON(w, statusCode(store), HealthResponse{
		Status:     store.Status,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func (h *HealthHandler) store(ctx context.Context) CompStatus {
	if h.db == nil {
		return CompStatus{Status: "ok", Detail: "memory"}
	}

	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		return CompStatus{Status: "down", Detail: "postgres"}
	}
	return CompStatus{Status: "ok", Latency: time.Since(start).String(), Detail: "postgres"}
}

func statusCode(c CompStatus) int {
	if c.Status != "ok" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// sseKeepAlive is the interval of comment frames that keep idle proxies
// from closing a live feed.
const sseKeepAlive = 15 * time.Second

func setSSEHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Del("Content-Length")
}

// streamSSE writes every value from events as an SSE frame named event until
// the channel closes or the client goes away.
func streamSSE[T any](log *slog.Logger, w http.ResponseWriter, r *http.Request, event string, events <-chan T, body func(T) any) {
	rc := http.NewResponseController(w)
	// Feeds outlive the server write timeout. Recorders do not support
	// deadlines, which is fine.
	_ = rc.SetWriteDeadline(time.Time{})
	setSSEHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.WarnContext(r.Context(), "sse flush unsupported", slog.String("error", err.Error()))
		return
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case v, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(body(v))
			if err != nil {
				log.ErrorContext(r.Context(), "sse encode", slog.String("error", err.Error()))
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

package middleware

import (
	"net/http"
	"strconv"

	"github.com/2400030292/MedGuard-AI/pkg/ctxutil"
)

// ViewportHeader carries the client's viewport width in CSS pixels.
const ViewportHeader = "X-Viewport-Width"

// Viewport stores the caller's viewport width in the context so records can
// tell mobile from web clients. Missing or malformed values are ignored.
func Viewport(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(ViewportHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		width, err := strconv.Atoi(raw)
		if err != nil || width <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxutil.WithViewportWidth(r.Context(), width)))
	})
}

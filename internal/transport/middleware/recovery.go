package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/2400030292/MedGuard-AI/pkg/ctxutil"
)

// Recovery turns a handler panic into a logged 500. A verification workflow
// runs outside the request, so only the request itself is lost.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				attrs := []any{
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
					slog.String("stack", string(debug.Stack())),
				}
				if role, _, ok := ctxutil.ActorFromCtx(r.Context()); ok {
					attrs = append(attrs, slog.String("role", role))
				}
				logger.ErrorContext(r.Context(), "panic recovered", attrs...)

				writeError(w, http.StatusInternalServerError, "internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (domain.Actor, error)
}

// Auth resolves a bearer token into the signed-in actor. Requests without a
// token pass through anonymous; an invalid token is rejected with 401.
// EventSource clients cannot set headers, so GET requests may carry the
// token in the access_token query parameter instead.
func Auth(validator tokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r) // Anonymous
				return
			}
			actor, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := ctxutil.WithActor(r.Context(), actor.RoleID, actor.Label)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor returns domain.ErrUnauthorized if nobody is signed in.
// Use in REST handlers, not as HTTP middleware.
func RequireActor(ctx context.Context) error {
	if _, _, ok := ctxutil.ActorFromCtx(ctx); !ok {
		return domain.ErrUnauthorized
	}
	return nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

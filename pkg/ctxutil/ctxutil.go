package ctxutil

import (
	"context"
)

type ctxKey string

const (
	actorKey     ctxKey = "actor"
	requestIDKey ctxKey = "request_id"
	viewportKey  ctxKey = "viewport_width"
)

type actor struct {
	roleID string
	label  string
}

// WithActor stores the signed-in role and its display label in the context.
func WithActor(ctx context.Context, roleID, label string) context.Context {
	return context.WithValue(ctx, actorKey, actor{roleID: roleID, label: label})
}

// ActorFromCtx extracts the role ID and label from the context.
// Returns ok=false if no actor is set or the role ID is empty.
func ActorFromCtx(ctx context.Context) (roleID, label string, ok bool) {
	a, found := ctx.Value(actorKey).(actor)
	if !found || a.roleID == "" {
		return "", "", false
	}
	return a.roleID, a.label, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithViewportWidth stores the caller's viewport width in CSS pixels.
func WithViewportWidth(ctx context.Context, width int) context.Context {
	return context.WithValue(ctx, viewportKey, width)
}

// ViewportWidthFromCtx returns the caller's viewport width, or 0 if unknown.
func ViewportWidthFromCtx(ctx context.Context) int {
	w, _ := ctx.Value(viewportKey).(int)
	return w
}

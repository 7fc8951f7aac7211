package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// GenerateRequestID returns a new random request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID stores id in ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithUserID stores the authenticated user's ID in ctx.
func ContextWithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// Ctx returns the global logger enriched with request_id and user_id from ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if ctx == nil {
		return &l
	}
	c := l.With()
	if id := RequestIDFromContext(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	if uid, ok := ctx.Value(userIDKey).(uint); ok && uid != 0 {
		c = c.Uint("user_id", uid)
	}
	l = c.Logger()
	return &l
}

package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/lead-management/internal/core/principal"
)

type ctxKey string

const contextAccessKey ctxKey = "access"

// ContextWithAccess stores the resolved access context for the request.
// Handlers and guards read it back instead of re-resolving per call.
func ContextWithAccess(ctx context.Context, access *principal.AccessContext) context.Context {
	return context.WithValue(ctx, contextAccessKey, access)
}

// AccessFromContext returns the access context resolved by the auth
// middleware, or false when the request is unauthenticated.
func AccessFromContext(ctx context.Context) (*principal.AccessContext, bool) {
	if ctx == nil {
		return nil, false
	}
	access, ok := ctx.Value(contextAccessKey).(*principal.AccessContext)
	return access, ok && access != nil
}

// WithTimeout bounds a store call, defaulting to 5 seconds. No call in the
// gating path is allowed to block indefinitely.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

package auth

import (
	"context"

	"github.com/bookery/bookery/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// authContextKey is the context key for storing AuthContext.
const authContextKey contextKey = "auth_context"

// ContextWithAuth adds AuthContext to the context.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext retrieves AuthContext from the context.
// Returns nil if not present (e.g. on excluded paths).
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// MustAuthFromContext retrieves AuthContext from the context.
// Panics if not present (use only when the auth middleware has run).
func MustAuthFromContext(ctx context.Context) *model.AuthContext {
	auth := AuthFromContext(ctx)
	if auth == nil {
		panic("auth context not found - ensure auth middleware is applied")
	}
	return auth
}

// UserIDFromContext is a convenience function to get the authenticated
// user ID from context. Returns 0 if not authenticated.
func UserIDFromContext(ctx context.Context) int64 {
	auth := AuthFromContext(ctx)
	if auth == nil || auth.User == nil {
		return 0
	}
	return auth.User.ID
}

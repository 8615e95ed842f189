package middleware

import (
	"context"

	"github.com/pizza-app/auth-service/services/token"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// AuthKey is the context key for the verified identity
	AuthKey contextKey = "auth"
)

// AuthContext is the verified identity attached by the token stages
type AuthContext = token.AuthContext

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// AuthContextFrom retrieves the verified identity from context
func AuthContextFrom(ctx context.Context) (AuthContext, bool) {
	if val := ctx.Value(AuthKey); val != nil {
		if auth, ok := val.(AuthContext); ok {
			return auth, true
		}
	}
	return AuthContext{}, false
}

// WithAuthContext attaches a verified identity to the context
func WithAuthContext(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, AuthKey, auth)
}

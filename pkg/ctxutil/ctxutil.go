// Package ctxutil provides helpers for storing and retrieving values in context.
package ctxutil

import "context"

// key is an unexported type to avoid collisions.
type key int

const (
	requestIDKey key = iota
	clientIDKey
	userIDKey
)

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context, if set.
func RequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

// WithClientID returns a new context with the given client ID.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientID extracts the client ID from the context, if set.
func ClientID(ctx context.Context) string {
	if s, ok := ctx.Value(clientIDKey).(string); ok {
		return s
	}
	return ""
}

// WithUserID returns a new context carrying the authenticated user ID.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user ID, zero if unset.
func UserID(ctx context.Context) int64 {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v
	}
	return 0
}

// Package ctxkeys carries per-request identity through context so that
// every model call, tool invocation, and log line can be correlated.
package ctxkeys

import "context"

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keySessionID ctxKey = "session_id"
)

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID returns the request id from ctx, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithSessionID returns a context carrying the session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keySessionID, id)
}

// SessionID returns the session id from ctx, or "" when absent.
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(keySessionID).(string)
	return v
}

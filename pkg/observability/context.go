package observability

import (
	"context"

	"github.com/google/uuid"
)

type correlationIDCtxKey struct{}
type requestIDCtxKey struct{}

// Log attribute keys for the request identifiers.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
)

// WithCorrelationID stores a correlation ID in the context, generating one
// when id is empty. The correlation ID ties together every log line of one
// logical request, across process boundaries when callers forward it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withGeneratedID(ctx, correlationIDCtxKey{}, id)
}

// CorrelationIDFromContext returns the stored correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, correlationIDCtxKey{})
}

// WithRequestID stores a request ID in the context, generating one when id
// is empty. Unlike the correlation ID, the request ID is fresh per hop.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withGeneratedID(ctx, requestIDCtxKey{}, id)
}

// RequestIDFromContext returns the stored request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDCtxKey{})
}

// NewRequestContext stamps a context with a fresh request ID and a
// correlation ID, inheriting parentCorrelationID when the caller supplied
// one.
func NewRequestContext(ctx context.Context, parentCorrelationID string) context.Context {
	ctx = WithRequestID(ctx, "")
	return WithCorrelationID(ctx, parentCorrelationID)
}

func withGeneratedID(ctx context.Context, key any, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, key, id)
}

func stringFromContext(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}

package observe

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request correlation ID.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID attaches a correlation ID to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation ID, or empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID reuses an inbound X-Request-ID or mints a new one.
func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" && len(id) <= 128 {
		return id
	}
	return uuid.NewString()
}

// RequestMeta describes an HTTP request for telemetry purposes.
type RequestMeta struct {
	Method string // HTTP method
	Route  string // registered route pattern, not the raw path
}

// SpanName returns the deterministic span name for this request.
// Format: "<METHOD> <route>"
func (m RequestMeta) SpanName() string {
	if m.Route == "" {
		return m.Method
	}
	return m.Method + " " + m.Route
}

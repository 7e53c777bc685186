package observe

import (
	"net/http"
	"time"
)

// Middleware wraps HTTP handlers with tracing, metrics and access logging.
//
// Contract:
//   - Concurrency: Wrap returns a handler safe for concurrent use.
//   - Context: the request context carries the span and a request ID.
//   - Ownership: the response body is passed through unmodified.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced by no-op implementations.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer along with
// the Metrics it records into, so other components can share them.
func MiddlewareFromObserver(obs Observer) (*Middleware, Metrics, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), metrics, nil
}

// Wrap instruments next as the given route.
func (m *Middleware) Wrap(route string, next http.Handler) http.Handler {
	return m.WrapRouted(func(*http.Request) string { return route }, next)
}

// WrapRouted instruments next, naming each request's route with route. The
// name must come from a bounded set such as mux patterns.
func (m *Middleware) WrapRouted(route func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := RequestMeta{Method: r.Method, Route: route(r)}

		id := requestID(r)
		w.Header().Set(RequestIDHeader, id)
		ctx := WithRequestID(r.Context(), id)

		ctx, span := m.tracer.StartSpan(ctx, meta)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(start)
		m.tracer.EndSpan(span, rec.status)
		m.metrics.RecordRequest(ctx, meta, rec.status, duration)

		fields := []Field{
			F("method", r.Method),
			F("route", meta.Route),
			F("status", rec.status),
			F("duration_ms", float64(duration.Microseconds())/1000),
		}
		if rec.status >= http.StatusInternalServerError {
			m.logger.Error(ctx, "request failed", fields...)
		} else {
			m.logger.Info(ctx, "request completed", fields...)
		}
	})
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

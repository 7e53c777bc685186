package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records request and authentication metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records a served request with its status and duration.
	RecordRequest(ctx context.Context, meta RequestMeta, status int, duration time.Duration)

	// RecordAuthentication records the outcome of a bearer token check
	// (none, success, malformed, bad_signature, expired, error).
	RecordAuthentication(ctx context.Context, outcome string)

	// RecordDecision records an authorization gate decision
	// (allow, unauthorized, forbidden).
	RecordDecision(ctx context.Context, decision string)
}

type metricsImpl struct {
	requestCount  metric.Int64Counter
	errorCount    metric.Int64Counter
	durationHist  metric.Float64Histogram
	authnCount    metric.Int64Counter
	decisionCount metric.Int64Counter
}

// NewMetrics creates Metrics backed by meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	requestCount, err := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"http.server.errors",
		metric.WithDescription("Total number of HTTP requests answered with a 5xx status"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"http.server.duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	authnCount, err := meter.Int64Counter(
		"auth.authentications",
		metric.WithDescription("Bearer token checks by outcome"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	decisionCount, err := meter.Int64Counter(
		"auth.decisions",
		metric.WithDescription("Authorization gate decisions by result"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		requestCount:  requestCount,
		errorCount:    errorCount,
		durationHist:  durationHist,
		authnCount:    authnCount,
		decisionCount: decisionCount,
	}, nil
}

func (m *metricsImpl) RecordRequest(ctx context.Context, meta RequestMeta, status int, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("http.request.method", meta.Method),
		attribute.String("http.route", meta.Route),
		attribute.String("http.response.status_code", strconv.Itoa(status)),
	)

	m.requestCount.Add(ctx, 1, opt)
	if status >= 500 {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordAuthentication(ctx context.Context, outcome string) {
	m.authnCount.Add(ctx, 1, metric.WithAttributes(attribute.String("auth.outcome", outcome)))
}

func (m *metricsImpl) RecordDecision(ctx context.Context, decision string) {
	m.decisionCount.Add(ctx, 1, metric.WithAttributes(attribute.String("auth.decision", decision)))
}

// NopMetrics returns a Metrics that does nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(context.Context, RequestMeta, int, time.Duration) {}
func (nopMetrics) RecordAuthentication(context.Context, string)                   {}
func (nopMetrics) RecordDecision(context.Context, string)                         {}

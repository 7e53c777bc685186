package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewTracer(tp.Tracer("test")), rec
}

func TestRequestMeta_SpanName(t *testing.T) {
	tests := []struct {
		meta RequestMeta
		want string
	}{
		{RequestMeta{Method: "GET", Route: "/api/v1"}, "GET /api/v1"},
		{RequestMeta{Method: "POST"}, "POST"},
	}
	for _, tt := range tests {
		if got := tt.meta.SpanName(); got != tt.want {
			t.Errorf("SpanName() = %q, want %q", got, tt.want)
		}
	}
}

func TestTracer_ServerSpan(t *testing.T) {
	tracer, rec := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), RequestMeta{Method: "GET", Route: "/api/v1"})
	tracer.EndSpan(span, 200)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name() != "GET /api/v1" {
		t.Errorf("span name = %q, want %q", spans[0].Name(), "GET /api/v1")
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", spans[0].SpanKind())
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("2xx span marked as error")
	}
}

func TestTracer_StatusCodes(t *testing.T) {
	tests := []struct {
		status    int
		wantError bool
	}{
		{401, false},
		{403, false},
		{500, true},
	}
	for _, tt := range tests {
		tracer, rec := newRecordingTracer()
		_, span := tracer.StartSpan(context.Background(), RequestMeta{Method: "GET", Route: "/x"})
		tracer.EndSpan(span, tt.status)

		got := rec.Ended()[0].Status().Code == codes.Error
		if got != tt.wantError {
			t.Errorf("status %d: error = %v, want %v", tt.status, got, tt.wantError)
		}
	}
}

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx, span := tracer.StartSpan(context.Background(), RequestMeta{Method: "GET"})
	if ctx == nil || span == nil {
		t.Fatal("NopTracer returned nil context or span")
	}
	tracer.EndSpan(span, 200)
}

// Package observe provides logging, tracing and metrics for the HTTP surface
// and the authentication pipeline.
//
// It is a pure instrumentation library: exporters are configured once at
// startup and the resulting Logger, Tracer and Metrics are handed to the
// components that record through them.
package observe

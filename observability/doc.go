// Package observability provides an OpenTelemetry-based metrics
// extension for drover. The MetricsExtension implements lifecycle hooks
// to record system-wide counters for workflow and state events.
//
// For per-operation tracing and latency metrics, see the middleware
// package: middleware.Tracing() and middleware.Metrics().
package observability

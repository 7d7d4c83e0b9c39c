// Package instrumentation provides OpenTelemetry-based metrics for the
// gateway: tool invocations, upstream API requests, token refreshes, and
// inbound HTTP traffic, exported in Prometheus format.
//
// The Provider owns the meter provider and the Prometheus registry; the
// Metrics recorder is nil-safe so callers can record unconditionally even
// when instrumentation is disabled.
package instrumentation

// Package server holds the runtime context shared by all tool handlers (the
// upstream API client, metrics, lifecycle state) plus the HTTP-side
// infrastructure: health endpoints, CORS middleware, and the dedicated
// Prometheus metrics server.
package server

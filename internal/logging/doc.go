// Package logging provides structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across the codebase so that
// log lines from the transport, the resource client, and the tool dispatcher
// can be correlated.
package logging

// Package common provides shared building blocks for the tool adapters:
// the tagged error taxonomy surfaced to MCP callers and helpers for
// validating caller-supplied parameters.
package common

// Package dispatch routes inbound MCP envelopes to tool adapters.
//
// A single endpoint accepts {type: "ping" | "manifest" | "tool_call"}
// envelopes. Tool calls are resolved against a data-driven adapter table;
// results are wrapped in exactly one tool_result envelope echoing the
// caller's call_id, and failures become a single error envelope whose type
// is the structural classification of the underlying error.
package dispatch

package dispatch

import "encoding/json"

// Envelope type discriminators.
const (
	TypePing     = "ping"
	TypePong     = "pong"
	TypeManifest = "manifest"
	TypeToolCall = "tool_call"
	TypeResult   = "tool_result"
	TypeError    = "error"
)

// Envelope is the inbound message shape. CallID is an opaque token echoed
// back verbatim and never inspected, hence json.RawMessage.
type Envelope struct {
	Type       string          `json:"type"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolParams map[string]any  `json:"tool_params,omitempty"`
	CallID     json.RawMessage `json:"call_id,omitempty"`
}

// ResultEnvelope is produced exactly once per successful tool call.
type ResultEnvelope struct {
	Type   string          `json:"type"`
	CallID json.RawMessage `json:"call_id,omitempty"`
	Result any             `json:"result"`
}

// ErrorEnvelope is the single failure shape for every error path.
type ErrorEnvelope struct {
	Type  string    `json:"type"`
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the stable error classification, a human-readable
// message, and optional upstream detail.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// PongEnvelope answers a ping.
type PongEnvelope struct {
	Type string `json:"type"`
}

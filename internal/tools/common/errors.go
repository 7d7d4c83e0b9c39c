package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hostbridge/hostbridge/internal/pms"
)

// ErrorKind tags a tool failure so classification is structural rather than
// string matching.
type ErrorKind string

// The closed set of error kinds surfaced to callers.
const (
	KindValidation ErrorKind = "ValidationError"
	KindNotFound   ErrorKind = "NotFoundError"
	KindConflict   ErrorKind = "ConflictError"
	KindUpstream   ErrorKind = "UpstreamError"
)

// ToolError is the classified failure of a tool adapter. Every adapter
// either returns a JSON-serializable result or a *ToolError; unclassified
// upstream errors are folded into KindUpstream by Classify before they can
// escape.
type ToolError struct {
	// Kind is the error classification
	Kind ErrorKind

	// Message is the human-readable, caller-facing message
	Message string

	// Status is the upstream HTTP status for KindUpstream errors, 0 otherwise
	Status int

	// Details carries optional upstream detail for the error envelope
	Details any

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ToolError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to its HTTP-equivalent classification.
func (e *ToolError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		if e.Status > 0 {
			return e.Status
		}
		return http.StatusInternalServerError
	}
}

// Validationf creates a ValidationError. Validation failures are always
// detected before any network call.
func Validationf(format string, args ...any) *ToolError {
	return &ToolError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a NotFoundError with a domain-specific message.
func NotFound(message string) *ToolError {
	return &ToolError{Kind: KindNotFound, Message: message, Status: http.StatusNotFound}
}

// Conflict creates a ConflictError with a domain-specific message.
func Conflict(message string) *ToolError {
	return &ToolError{Kind: KindConflict, Message: message, Status: http.StatusConflict}
}

// Classify folds an arbitrary adapter error into the taxonomy. Already
// classified errors pass through; upstream API errors become KindUpstream
// carrying the original status and detail; anything else becomes a
// KindUpstream error with no status.
func Classify(err error) *ToolError {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	var apiErr *pms.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message()
		if message == "" {
			message = apiErr.Error()
		}
		return &ToolError{
			Kind:    KindUpstream,
			Message: message,
			Status:  apiErr.StatusCode,
			Details: upstreamDetails(apiErr),
			Err:     err,
		}
	}

	return &ToolError{Kind: KindUpstream, Message: err.Error(), Err: err}
}

func upstreamDetails(apiErr *pms.APIError) any {
	details := map[string]any{
		"method": apiErr.Method,
		"path":   apiErr.Path,
	}
	if apiErr.StatusCode > 0 {
		details["status"] = apiErr.StatusCode
	}
	return details
}

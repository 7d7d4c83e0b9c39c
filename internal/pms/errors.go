package pms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// errMissingAccessToken signals a 2xx token response without an access_token field.
var errMissingAccessToken = errors.New("token response missing access_token")

// APIError represents a failed request against the upstream API.
// StatusCode is 0 when no response was received (network failure or timeout
// after exhausting retries).
type APIError struct {
	// Method is the HTTP method of the failed request
	Method string

	// Path is the resource path (or full URL for token requests)
	Path string

	// StatusCode is the last upstream status, 0 if no response was received
	StatusCode int

	// Body is the raw upstream response body, if any
	Body []byte

	// Err is the underlying error for transport-level failures
	Err error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("pms %s %s: upstream status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("pms %s %s: %v", e.Method, e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *APIError) Unwrap() error {
	return e.Err
}

// Message extracts a human-readable message from the upstream response body.
// It prefers the JSON "message" or "error" fields and falls back to the raw
// body text.
func (e *APIError) Message() string {
	if len(e.Body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return string(e.Body)
}

// BodyContains reports whether the upstream response body mentions the given
// substring, case-insensitively. Used to disambiguate 404 responses that may
// refer to different entities.
func (e *APIError) BodyContains(s string) bool {
	return bytes.Contains(bytes.ToLower(e.Body), bytes.ToLower([]byte(s)))
}

// StatusOf returns the upstream status code of err if it is an *APIError
// with a response, and false otherwise.
func StatusOf(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		return apiErr.StatusCode, true
	}
	return 0, false
}

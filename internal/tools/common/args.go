package common

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"
)

// datePattern is the strict 4-2-2 digit calendar pattern for date parameters.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// StringArg extracts an optional string parameter. A missing key or a
// non-string value yields ok=false.
func StringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok && v != ""
}

// RequireString extracts a required, non-empty string parameter.
func RequireString(args map[string]any, key string) (string, error) {
	v, ok := StringArg(args, key)
	if !ok {
		return "", Validationf("%s is required", key)
	}
	return v, nil
}

// IntArg extracts an optional integer parameter. JSON numbers arrive as
// float64; values with a fractional part are rejected.
func IntArg(args map[string]any, key string) (int, bool, error) {
	raw, present := args[key]
	if !present {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false, Validationf("%s must be an integer", key)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	default:
		return 0, false, Validationf("%s must be an integer", key)
	}
}

// PositiveIntArg extracts an optional integer parameter that must be > 0.
func PositiveIntArg(args map[string]any, key string) (int, bool, error) {
	v, ok, err := IntArg(args, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if v <= 0 {
		return 0, false, Validationf("%s must be a positive integer", key)
	}
	return v, true, nil
}

// NonNegativeIntArg extracts an optional integer parameter that must be >= 0.
func NonNegativeIntArg(args map[string]any, key string) (int, bool, error) {
	v, ok, err := IntArg(args, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if v < 0 {
		return 0, false, Validationf("%s must be a non-negative integer", key)
	}
	return v, true, nil
}

// RequireDate extracts a required date parameter in YYYY-MM-DD form and
// verifies it names a real calendar date.
func RequireDate(args map[string]any, key string) (string, error) {
	v, err := RequireString(args, key)
	if err != nil {
		return "", err
	}
	if !datePattern.MatchString(v) {
		return "", Validationf("%s must be a date in YYYY-MM-DD format", key)
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return "", Validationf("%s must be a valid calendar date", key)
	}
	return v, nil
}

// RequireDateRange extracts a start and end date and verifies the end is
// strictly after the start. Zero-padded ISO dates compare correctly as
// strings.
func RequireDateRange(args map[string]any, startKey, endKey string) (string, string, error) {
	start, err := RequireDate(args, startKey)
	if err != nil {
		return "", "", err
	}
	end, err := RequireDate(args, endKey)
	if err != nil {
		return "", "", err
	}
	if end <= start {
		return "", "", Validationf("%s must be after %s", endKey, startKey)
	}
	return start, end, nil
}

// JSONStringArg extracts an optional filter-like parameter: structured
// objects are serialized to a JSON string for transmission, strings pass
// through unchanged.
func JSONStringArg(args map[string]any, key string) (string, bool, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return "", false, nil
	}
	if s, ok := raw.(string); ok {
		return s, s != "", nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return "", false, Validationf("%s is not serializable: %v", key, err)
	}
	return string(encoded), true, nil
}

// NonBlankString reports whether s contains any non-whitespace character.
func NonBlankString(s string) bool {
	return strings.TrimSpace(s) != ""
}

package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
)

// splitCSV parses a comma-separated query parameter into its non-empty
// trimmed values.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTime accepts RFC 3339 timestamps or bare dates.
func parseTime(field, raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation(field, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

// parseOptionalTime maps "" to nil and otherwise parses like parseTime.
func parseOptionalTime(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseIntParam parses a positive integer query parameter, falling back
// to def when absent or malformed.
func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

package handlers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"sensor_events/internal/models"
)

const (
	layoutDateTime = "2006-01-02 15:04:05.999999999"
	layoutLocalISO = "2006-01-02T15:04:05.999999999"
	layoutDate     = "2006-01-02"
	layoutMinutes  = "2006-01-02T15:04Z07:00"

	defaultLimit = 100
)

var timeLayouts = []string{time.RFC3339Nano, layoutMinutes, layoutLocalISO, layoutDateTime, layoutDate}

// isDateOnly reports whether the value carries no time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// parseTime accepts RFC3339 (seconds optional), zone-less
// "YYYY-MM-DDTHH:MM:SS[.frac]", "YYYY-MM-DD HH:MM:SS[.frac]" and
// "YYYY-MM-DD"; zone-less forms are read as UTC.
func parseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, models.NewClientError(models.CodeInvalidTime,
		"%s: invalid time %q, expected RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", field, s)
}

// parseUpperBound treats a bare date as the end of that day, inclusive.
func parseUpperBound(field, s string) (time.Time, error) {
	t, err := parseTime(field, s)
	if err != nil {
		return t, err
	}
	if isDateOnly(strings.TrimSpace(s)) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func parseFloat(field, s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, models.NewClientError(models.CodeMissingField, "%s is required", field)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, models.NewClientError(models.CodeInvalidNumber, "%s: invalid number %q", field, s)
	}
	return f, nil
}

// parseIntParam returns def for an empty value.
func parseIntParam(code, field, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, models.NewClientError(code, "%s: invalid integer %q", field, s)
	}
	return v, nil
}

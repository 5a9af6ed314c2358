package services

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// ParseISODate parses a YYYY-MM-DD string as midnight in location.
func ParseISODate(raw string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, ErrInvalidDate
	}
	parsed, err := time.ParseInLocation(DateLayout, trimmed, location)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// ParseOptionalISODate returns nil for an empty string.
func ParseOptionalISODate(raw string, location *time.Location) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := ParseISODate(raw, location)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func FormatOptionalDate(value *time.Time) string {
	if value == nil || value.IsZero() {
		return ""
	}
	return value.Format(DateLayout)
}

package api

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/places"
	"github.com/terraincognita07/mamacare/internal/services"
	"github.com/terraincognita07/mamacare/internal/sms"
)

func TestServiceStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "validation", err: fmt.Errorf("%w: name is required", models.ErrInvalidRecord), status: fiber.StatusBadRequest, message: "invalid record: name is required"},
		{name: "not found", err: services.ErrContactNotFound, status: fiber.StatusNotFound, message: "emergency contact not found"},
		{name: "conflict", err: services.ErrPostpartumRequired, status: fiber.StatusConflict, message: services.ErrPostpartumRequired.Error()},
		{name: "not configured", err: places.ErrNotConfigured, status: fiber.StatusServiceUnavailable, message: places.ErrNotConfigured.Error()},
		{name: "upstream", err: fmt.Errorf("%w: 0 of 2", sms.ErrDeliveryFailed), status: fiber.StatusBadGateway, message: "fallback"},
		{name: "alert persist", err: fmt.Errorf("%w: disk full", services.ErrAlertPersistFailed), status: fiber.StatusInternalServerError, message: "alert could not be saved, call emergency services directly"},
		{name: "store error hides detail", err: fmt.Errorf("%w: database is locked", services.ErrModeTransitionFailed), status: fiber.StatusInternalServerError, message: "fallback"},
		{name: "unknown", err: errors.New("boom"), status: fiber.StatusInternalServerError, message: "fallback"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, message := serviceStatus(test.err, "fallback")
			if status != test.status || message != test.message {
				t.Fatalf("expected %d %q, got %d %q", test.status, test.message, status, message)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	lagos := time.FixedZone("WAT", 3600)
	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{raw: "", want: time.Time{}},
		{raw: "2025-06-02T09:30:00Z", want: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)},
		{raw: "2025-06-02T09:30", want: time.Date(2025, 6, 2, 9, 30, 0, 0, lagos)},
		{raw: "2025-06-02", want: time.Date(2025, 6, 2, 0, 0, 0, 0, lagos)},
		{raw: "next tuesday", wantErr: true},
	}

	for _, test := range tests {
		got, err := parseTimestamp(test.raw, lagos)
		if test.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", test.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parse %q: %v", test.raw, err)
		}
		if !got.Equal(test.want) {
			t.Fatalf("parse %q: expected %s, got %s", test.raw, test.want, got)
		}
	}
}

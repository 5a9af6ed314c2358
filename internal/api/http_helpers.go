package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/assistant"
	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/places"
	"github.com/terraincognita07/mamacare/internal/security"
	"github.com/terraincognita07/mamacare/internal/services"
	"github.com/terraincognita07/mamacare/internal/sms"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

var errInvalidInput = errors.New("invalid input")

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// serviceStatus maps a service error to an HTTP status and a message that is
// safe to show. Unknown errors are 500 with fallback.
func serviceStatus(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, services.ErrAlertPersistFailed):
		return fiber.StatusInternalServerError, "alert could not be saved, call emergency services directly"

	case errors.Is(err, services.ErrContactNotFound),
		errors.Is(err, services.ErrAppointmentNotFound),
		errors.Is(err, services.ErrBabyNotFound),
		errors.Is(err, services.ErrUnknownRoadmapItem),
		errors.Is(err, services.ErrAuthUserNotFound):
		return fiber.StatusNotFound, err.Error()

	case errors.Is(err, services.ErrEmailAlreadyRegistered),
		errors.Is(err, services.ErrInvalidModeTransition),
		errors.Is(err, services.ErrPostpartumRequired),
		errors.Is(err, services.ErrPregnancyRecordMissing),
		errors.Is(err, services.ErrTooManyContacts):
		return fiber.StatusConflict, err.Error()

	case errors.Is(err, errInvalidInput),
		errors.Is(err, models.ErrInvalidRecord),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrAuthCredentialsInvalid),
		errors.Is(err, services.ErrAuthRoleInvalid),
		errors.Is(err, security.ErrWeakPassword),
		errors.Is(err, services.ErrInvalidModeChoice),
		errors.Is(err, services.ErrInvalidPregnancyInput),
		errors.Is(err, services.ErrInvalidProfile),
		errors.Is(err, services.ErrInvalidAlertType),
		errors.Is(err, services.ErrInvalidBabyLog),
		errors.Is(err, assistant.ErrInvalidRequest),
		errors.Is(err, sms.ErrInvalidRequest),
		errors.Is(err, places.ErrInvalidQuery):
		return fiber.StatusBadRequest, err.Error()

	case errors.Is(err, sms.ErrNotConfigured),
		errors.Is(err, places.ErrNotConfigured),
		errors.Is(err, assistant.ErrNotConfigured):
		return fiber.StatusServiceUnavailable, err.Error()

	case errors.Is(err, sms.ErrDeliveryFailed),
		errors.Is(err, places.ErrLookupFailed),
		errors.Is(err, assistant.ErrCompletionFailed):
		return fiber.StatusBadGateway, fallback
	}
	return fiber.StatusInternalServerError, fallback
}

func (handler *Handler) serviceError(c *fiber.Ctx, err error, fallback string) error {
	status, message := serviceStatus(err, fallback)
	if status >= fiber.StatusInternalServerError {
		handler.log.Error("request failed", "path", c.Path(), "status", status, "error", err.Error())
	}
	return apiError(c, status, message)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidInput
	}
	return nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || value == 0 {
		return 0, errInvalidInput
	}
	return uint(value), nil
}

func parseLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// parseTimestamp accepts RFC 3339, a local "YYYY-MM-DDTHH:MM" value or a
// bare date. Empty input yields the zero time.
func parseTimestamp(raw string, location *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed, nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, trimmed, location); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errInvalidInput
}

func parseOptionalFloat(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, errInvalidInput
	}
	return &value, nil
}

package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/assistant"
	"github.com/terraincognita07/mamacare/internal/places"
	"github.com/terraincognita07/mamacare/internal/sms"
)

type chatPayload struct {
	Message string `json:"message"`
}

type sendSMSResponse struct {
	sms.Result
	Error string `json:"error,omitempty"`
}

// Chat answers in the context of the signed-in user and stores the
// exchange. Assistant failures still answer 200 with the fallback text.
func (handler *Handler) Chat(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := chatPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	result, err := handler.deps.Chat.Ask(c.UserContext(), session, payload.Message)
	if err != nil {
		return handler.serviceError(c, err, "failed to save chat message")
	}
	return c.JSON(result)
}

func (handler *Handler) ChatHistory(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	messages, err := handler.deps.Chat.History(c.UserContext(), session.UserID, parseLimit(c))
	if err != nil {
		return handler.serviceError(c, err, "failed to load chat history")
	}
	return c.JSON(messages)
}

func (handler *Handler) NearbyHealthcare(c *fiber.Ctx) error {
	if handler.deps.Places == nil {
		return apiError(c, fiber.StatusServiceUnavailable, places.ErrNotConfigured.Error())
	}
	latitude, err := parseOptionalFloat(c.Query("lat"))
	if err != nil || latitude == nil {
		return apiError(c, fiber.StatusBadRequest, "lat is required")
	}
	longitude, err := parseOptionalFloat(c.Query("lng"))
	if err != nil || longitude == nil {
		return apiError(c, fiber.StatusBadRequest, "lng is required")
	}
	radius := places.DefaultRadius
	if raw := strings.TrimSpace(c.Query("radius")); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid radius")
		}
	}

	results, err := handler.deps.Places.Nearby(c.UserContext(), *latitude, *longitude, radius)
	if err != nil {
		return handler.serviceError(c, err, "nearby search failed")
	}
	return c.JSON(fiber.Map{"results": results})
}

// SendSMS is the raw dispatch function. A request that reached no
// recipient answers 502 with the per-recipient results.
func (handler *Handler) SendSMS(c *fiber.Ctx) error {
	if handler.deps.SMS == nil {
		return apiError(c, fiber.StatusServiceUnavailable, sms.ErrNotConfigured.Error())
	}
	request := sms.Request{}
	if err := parseBody(c, &request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if request.Language == "" {
		request.Language = currentLanguage(c)
	}

	result, err := handler.deps.SMS.Send(c.UserContext(), request)
	if errors.Is(err, sms.ErrDeliveryFailed) {
		return c.Status(fiber.StatusBadGateway).JSON(sendSMSResponse{Result: result, Error: err.Error()})
	}
	if err != nil {
		return handler.serviceError(c, err, "sms dispatch failed")
	}
	return c.JSON(sendSMSResponse{Result: result})
}

// ChatFunction is the context-free assistant call. Failures carry the
// fallback answer next to the error.
func (handler *Handler) ChatFunction(c *fiber.Ctx) error {
	request := assistant.Request{}
	if err := parseBody(c, &request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	response, err := handler.deps.Assistant.Reply(c.UserContext(), request)
	switch {
	case errors.Is(err, assistant.ErrInvalidRequest):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		status, _ := serviceStatus(err, "")
		return c.Status(status).JSON(response)
	}
	return c.JSON(response)
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/services"
)

type onboardingChoicePayload struct {
	Choice string `json:"choice" form:"choice"`
}

type deliveryPayload struct {
	DeliveryDate string `json:"delivery_date" form:"delivery_date"`
}

func (handler *Handler) GetMode(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	state, err := handler.deps.Modes.Current(c.UserContext(), session)
	if err != nil {
		return handler.serviceError(c, err, "failed to load mode")
	}
	return c.JSON(state)
}

func (handler *Handler) RefreshMode(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	state, err := handler.deps.Modes.Refresh(c.UserContext(), session)
	if err != nil {
		return handler.serviceError(c, err, "failed to load mode")
	}
	return c.JSON(state)
}

func (handler *Handler) OnboardingChoice(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := onboardingChoicePayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	state, err := handler.deps.Modes.Choose(c.UserContext(), session, payload.Choice)
	if err != nil {
		return handler.serviceError(c, err, "failed to update mode")
	}
	return c.JSON(state)
}

func (handler *Handler) SwitchToPostpartum(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := deliveryPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	deliveryDate, err := services.ParseISODate(payload.DeliveryDate, handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid delivery date")
	}

	state, err := handler.deps.Modes.SwitchToPostpartum(c.UserContext(), session, deliveryDate)
	if err != nil {
		return handler.serviceError(c, err, "failed to update mode")
	}
	return c.JSON(state)
}

func (handler *Handler) SwitchToPregnancy(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	state, err := handler.deps.Modes.SwitchToPregnancy(c.UserContext(), session)
	if err != nil {
		return handler.serviceError(c, err, "failed to update mode")
	}
	return c.JSON(state)
}

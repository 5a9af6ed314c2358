package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/services"
)

type alertPayload struct {
	Type      string   `json:"type"`
	Message   string   `json:"message"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type weeklyReminderPayload struct {
	Enabled bool `json:"enabled"`
}

func (handler *Handler) ListContacts(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	contacts, err := handler.deps.Contacts.List(c.UserContext(), session.UserID)
	if err != nil {
		return handler.serviceError(c, err, "failed to load emergency contacts")
	}
	return c.JSON(contacts)
}

func (handler *Handler) AddContact(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := services.ContactInput{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	contact, err := handler.deps.Contacts.Add(c.UserContext(), session.UserID, payload)
	if err != nil {
		return handler.serviceError(c, err, "failed to save emergency contact")
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

func (handler *Handler) DeleteContact(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	contactID, err := parseUintParam(c, "id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid contact id")
	}
	if err := handler.deps.Contacts.Remove(c.UserContext(), session.UserID, contactID); err != nil {
		return handler.serviceError(c, err, "failed to delete emergency contact")
	}
	return sendNoContent(c)
}

// TriggerAlert answers 201 whenever the alert row was written, even if no
// contact could be reached; delivery problems are in the body.
func (handler *Handler) TriggerAlert(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := alertPayload{}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &payload); err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid input")
		}
	}

	result, err := handler.deps.Alerts.Trigger(c.UserContext(), session.UserID, services.TriggerInput{
		Type:      payload.Type,
		Message:   payload.Message,
		Location:  payload.Location,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		ClientIP:  c.IP(),
	})
	if err != nil {
		return handler.serviceError(c, err, "failed to record emergency alert")
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (handler *Handler) ListAlerts(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	alerts, err := handler.deps.Alerts.History(c.UserContext(), session.UserID, parseLimit(c))
	if err != nil {
		return handler.serviceError(c, err, "failed to load emergency alerts")
	}
	return c.JSON(alerts)
}

func (handler *Handler) GetRoadmap(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	pregnancy, err := handler.deps.Pregnancies.Get(c.UserContext(), session.UserID)
	if err != nil {
		return handler.serviceError(c, err, "failed to load pregnancy details")
	}
	overview, err := handler.deps.Planning.Overview(c.UserContext(), session, pregnancy.CurrentWeek)
	if err != nil {
		return handler.serviceError(c, err, "failed to load emergency roadmap")
	}
	return c.JSON(overview)
}

func (handler *Handler) ToggleRoadmapItem(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	result, err := handler.deps.Planning.Toggle(c.UserContext(), session, c.Params("itemID"))
	if err != nil {
		return handler.serviceError(c, err, "failed to update emergency roadmap")
	}
	return c.JSON(result)
}

func (handler *Handler) SetWeeklyReminder(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := weeklyReminderPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if err := handler.deps.Planning.SetWeeklyReminder(c.UserContext(), session.UserID, payload.Enabled); err != nil {
		return handler.serviceError(c, err, "failed to update weekly reminders")
	}
	return c.JSON(fiber.Map{"weekly_reminders": payload.Enabled})
}

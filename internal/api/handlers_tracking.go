package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/services"
)

type symptomPayload struct {
	Symptom   string   `json:"symptom"`
	Severity  string   `json:"severity"`
	Notes     string   `json:"notes"`
	LoggedAt  string   `json:"logged_at"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type appointmentPayload struct {
	Title       string `json:"title"`
	Provider    string `json:"provider"`
	Location    string `json:"location"`
	Notes       string `json:"notes"`
	ScheduledAt string `json:"scheduled_at"`
}

type babyPayload struct {
	Name      string `json:"name"`
	Sex       string `json:"sex"`
	BirthDate string `json:"birth_date"`
}

type babyLogPayload struct {
	Kind            string `json:"kind"`
	DurationMinutes int    `json:"duration_minutes"`
	AmountML        int    `json:"amount_ml"`
	Notes           string `json:"notes"`
	LoggedAt        string `json:"logged_at"`
}

func (handler *Handler) ListSymptoms(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	logs, err := handler.deps.Symptoms.Recent(c.UserContext(), session.UserID, parseLimit(c))
	if err != nil {
		return handler.serviceError(c, err, "failed to load symptoms")
	}
	return c.JSON(logs)
}

func (handler *Handler) LogSymptom(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := symptomPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	loggedAt, err := parseTimestamp(payload.LoggedAt, handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid logged_at")
	}

	result, err := handler.deps.Symptoms.Log(c.UserContext(), session.UserID, services.SymptomInput{
		Symptom:   payload.Symptom,
		Severity:  payload.Severity,
		Notes:     payload.Notes,
		LoggedAt:  loggedAt,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
	})
	if err != nil {
		return handler.serviceError(c, err, "failed to save symptom")
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (handler *Handler) ListAppointments(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	appointments, err := handler.deps.Appointments.List(c.UserContext(), session.UserID)
	if err != nil {
		return handler.serviceError(c, err, "failed to load appointments")
	}
	return c.JSON(appointments)
}

func (handler *Handler) CreateAppointment(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := appointmentPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	scheduledAt, err := parseTimestamp(payload.ScheduledAt, handler.location)
	if err != nil || scheduledAt.IsZero() {
		return apiError(c, fiber.StatusBadRequest, "invalid scheduled_at")
	}

	appointment, err := handler.deps.Appointments.Create(c.UserContext(), session.UserID, services.AppointmentInput{
		Title:       payload.Title,
		Provider:    payload.Provider,
		Location:    payload.Location,
		Notes:       payload.Notes,
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		return handler.serviceError(c, err, "failed to save appointment")
	}
	return c.Status(fiber.StatusCreated).JSON(appointment)
}

func (handler *Handler) DeleteAppointment(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	appointmentID, err := parseUintParam(c, "id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	if err := handler.deps.Appointments.Delete(c.UserContext(), session.UserID, appointmentID); err != nil {
		return handler.serviceError(c, err, "failed to delete appointment")
	}
	return sendNoContent(c)
}

func (handler *Handler) ListBabies(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	babies, err := handler.deps.Babies.List(c.UserContext(), session)
	if err != nil {
		return handler.serviceError(c, err, "failed to load babies")
	}
	return c.JSON(babies)
}

func (handler *Handler) AddBaby(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := babyPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	input := services.BabyInput{Name: payload.Name, Sex: payload.Sex}
	if payload.BirthDate != "" {
		birthDate, err := services.ParseISODate(payload.BirthDate, handler.location)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid birth date")
		}
		input.BirthDate = birthDate
	}

	baby, err := handler.deps.Babies.Add(c.UserContext(), session, input)
	if err != nil {
		return handler.serviceError(c, err, "failed to save baby")
	}
	return c.Status(fiber.StatusCreated).JSON(baby)
}

func (handler *Handler) AddBabyLog(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	babyID, err := parseUintParam(c, "id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid baby id")
	}
	payload := babyLogPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	loggedAt, err := parseTimestamp(payload.LoggedAt, handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid logged_at")
	}

	entry, err := handler.deps.Babies.AddLog(c.UserContext(), session, babyID, services.BabyLogInput{
		Kind:            payload.Kind,
		DurationMinutes: payload.DurationMinutes,
		AmountML:        payload.AmountML,
		Notes:           payload.Notes,
		LoggedAt:        loggedAt,
	})
	if err != nil {
		return handler.serviceError(c, err, "failed to save baby log")
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (handler *Handler) ListBabyLogs(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	babyID, err := parseUintParam(c, "id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid baby id")
	}
	logs, err := handler.deps.Babies.Logs(c.UserContext(), session, babyID, parseLimit(c))
	if err != nil {
		return handler.serviceError(c, err, "failed to load baby logs")
	}
	return c.JSON(logs)
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/services"
)

type profilePayload struct {
	DisplayName string `json:"display_name" form:"display_name"`
	Phone       string `json:"phone" form:"phone"`
	Language    string `json:"language" form:"language"`
}

type pregnancyPayload struct {
	LastMenstrualPeriod string `json:"last_menstrual_period"`
	DueDate             string `json:"due_date"`
	WeeksPregnant       *int   `json:"weeks_pregnant"`
	IsHighRisk          bool   `json:"is_high_risk"`
	BabyCount           int    `json:"baby_count"`
	BloodType           string `json:"blood_type"`
	MedicalConditions   string `json:"medical_conditions"`
	Medications         string `json:"medications"`
	Allergies           string `json:"allergies"`
}

func (handler *Handler) GetProfile(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	profile, err := handler.deps.Profiles.Get(c.UserContext(), session.UserID)
	if err != nil {
		return handler.serviceError(c, err, "failed to load profile")
	}
	return c.JSON(profile)
}

func (handler *Handler) UpdateProfile(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := profilePayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	profile, err := handler.deps.Profiles.Update(c.UserContext(), session.UserID, services.ProfileInput{
		DisplayName: payload.DisplayName,
		Phone:       payload.Phone,
		Language:    payload.Language,
	})
	if err != nil {
		return handler.serviceError(c, err, "failed to update profile")
	}
	if profile.Language != "" && profile.Language != currentLanguage(c) {
		handler.setLanguageCookie(c, profile.Language)
	}
	return c.JSON(profile)
}

func (handler *Handler) GetPregnancy(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	view, err := handler.deps.Pregnancies.Get(c.UserContext(), session.UserID)
	if err != nil {
		return handler.serviceError(c, err, "failed to load pregnancy details")
	}
	return c.JSON(view)
}

func (handler *Handler) SavePregnancy(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	payload := pregnancyPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	view, err := handler.deps.Pregnancies.Save(c.UserContext(), session, services.PregnancyInput{
		LastMenstrualPeriod: payload.LastMenstrualPeriod,
		DueDate:             payload.DueDate,
		WeeksPregnant:       payload.WeeksPregnant,
		IsHighRisk:          payload.IsHighRisk,
		BabyCount:           payload.BabyCount,
		BloodType:           payload.BloodType,
		MedicalConditions:   payload.MedicalConditions,
		Medications:         payload.Medications,
		Allergies:           payload.Allergies,
	})
	if err != nil {
		return handler.serviceError(c, err, "failed to save pregnancy details")
	}
	return c.JSON(view)
}

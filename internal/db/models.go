package db

import "github.com/terraincognita07/mamacare/internal/models"

// AllModels lists every persisted model, in foreign-key order.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Profile{},
		&models.PregnancyRecord{},
		&models.EmergencyContact{},
		&models.EmergencyAlert{},
		&models.EmergencyPlanning{},
		&models.EmergencyChecklistItem{},
		&models.SymptomLog{},
		&models.Appointment{},
		&models.Baby{},
		&models.BabyLog{},
		&models.ChatMessage{},
	}
}

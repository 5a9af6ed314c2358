package models

import "time"

type UserMode string

const (
	ModeOnboarding UserMode = "onboarding"
	ModePregnancy  UserMode = "pregnancy"
	ModePostpartum UserMode = "postpartum"
)

func (mode UserMode) Valid() bool {
	switch mode {
	case ModeOnboarding, ModePregnancy, ModePostpartum:
		return true
	default:
		return false
	}
}

// PregnancyRecord is the single pregnancy_data row owned by a user. A
// non-nil DeliveryDate means the owner is postpartum.
type PregnancyRecord struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UserID              uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	LastMenstrualPeriod *time.Time `gorm:"type:date" json:"last_menstrual_period,omitempty"`
	DueDate             *time.Time `gorm:"type:date" json:"due_date,omitempty"`
	WeeksPregnant       *int       `json:"weeks_pregnant,omitempty"`
	DeliveryDate        *time.Time `gorm:"type:date" json:"delivery_date,omitempty"`
	IsHighRisk          bool       `gorm:"not null;default:false" json:"is_high_risk"`
	BabyCount           int        `gorm:"not null;default:1" json:"baby_count"`
	BloodType           string     `gorm:"not null;default:''" json:"blood_type"`
	MedicalConditions   string     `gorm:"not null;default:''" json:"medical_conditions"`
	Medications         string     `gorm:"not null;default:''" json:"medications"`
	Allergies           string     `gorm:"not null;default:''" json:"allergies"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (PregnancyRecord) TableName() string {
	return "pregnancy_data"
}

package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	AlertTypeEmergency     = "emergency"
	AlertTypeLabor         = "labor"
	AlertTypeSevereSymptom = "severe_symptom"

	DefaultAlertMessage  = "I need urgent help. Please contact me or send help to my location."
	DefaultAlertLocation = "Location unavailable"
)

type EmergencyContact struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Name         string    `gorm:"not null" json:"name"`
	Phone        string    `gorm:"not null" json:"phone"`
	Relationship string    `gorm:"not null;default:''" json:"relationship"`
	Email        string    `gorm:"not null;default:''" json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewEmergencyContact(userID uint, name string, phone string, relationship string, email string) (EmergencyContact, error) {
	if err := requireOwner(userID); err != nil {
		return EmergencyContact{}, err
	}
	cleanName, err := requiredField("name", name)
	if err != nil {
		return EmergencyContact{}, err
	}
	cleanPhone, err := requiredField("phone", phone)
	if err != nil {
		return EmergencyContact{}, err
	}
	cleanEmail := strings.ToLower(strings.TrimSpace(email))
	if cleanEmail != "" {
		if _, err := mail.ParseAddress(cleanEmail); err != nil {
			return EmergencyContact{}, fmt.Errorf("%w: email is malformed", ErrInvalidRecord)
		}
	}

	return EmergencyContact{
		UserID:       userID,
		Name:         cleanName,
		Phone:        cleanPhone,
		Relationship: strings.TrimSpace(relationship),
		Email:        cleanEmail,
	}, nil
}

// EmergencyAlert rows are written once per trigger and never updated.
type EmergencyAlert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Reference string    `gorm:"not null;uniqueIndex" json:"reference"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"not null" json:"type"`
	Message   string    `gorm:"not null" json:"message"`
	Location  string    `gorm:"not null;default:''" json:"location"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func NewEmergencyAlert(userID uint, reference string, alertType string, message string, location string, createdAt time.Time) (EmergencyAlert, error) {
	if err := requireOwner(userID); err != nil {
		return EmergencyAlert{}, err
	}
	cleanReference, err := requiredField("reference", reference)
	if err != nil {
		return EmergencyAlert{}, err
	}
	if createdAt.IsZero() {
		return EmergencyAlert{}, fmt.Errorf("%w: created at is required", ErrInvalidRecord)
	}

	cleanType := strings.ToLower(strings.TrimSpace(alertType))
	if cleanType == "" {
		cleanType = AlertTypeEmergency
	}
	cleanMessage := strings.TrimSpace(message)
	if cleanMessage == "" {
		cleanMessage = DefaultAlertMessage
	}
	cleanLocation := strings.TrimSpace(location)
	if cleanLocation == "" {
		cleanLocation = DefaultAlertLocation
	}

	return EmergencyAlert{
		Reference: cleanReference,
		UserID:    userID,
		Type:      cleanType,
		Message:   cleanMessage,
		Location:  cleanLocation,
		CreatedAt: createdAt,
	}, nil
}

// EmergencyPlanning keeps per-user roadmap settings. ChecklistData holds the
// legacy serialized checklist and is only read for a one-time import.
type EmergencyPlanning struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	WeeklyReminders bool      `gorm:"not null;default:false" json:"weekly_reminders"`
	ChecklistData   string    `gorm:"not null;default:''" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (EmergencyPlanning) TableName() string {
	return "emergency_planning"
}

type EmergencyChecklistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uidx_checklist_user_item" json:"user_id"`
	ItemID    string    `gorm:"not null;uniqueIndex:uidx_checklist_user_item" json:"item_id"`
	Checked   bool      `gorm:"not null;default:false" json:"checked"`
	UpdatedAt time.Time `json:"updated_at"`
}

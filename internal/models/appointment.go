package models

import (
	"fmt"
	"strings"
	"time"
)

type Appointment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	Title          string     `gorm:"not null" json:"title"`
	Provider       string     `gorm:"not null;default:''" json:"provider"`
	Location       string     `gorm:"not null;default:''" json:"location"`
	Notes          string     `gorm:"not null;default:''" json:"notes"`
	ScheduledAt    time.Time  `gorm:"not null;index" json:"scheduled_at"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func NewAppointment(userID uint, title string, provider string, location string, notes string, scheduledAt time.Time) (Appointment, error) {
	if err := requireOwner(userID); err != nil {
		return Appointment{}, err
	}
	cleanTitle, err := requiredField("title", title)
	if err != nil {
		return Appointment{}, err
	}
	if scheduledAt.IsZero() {
		return Appointment{}, fmt.Errorf("%w: scheduled at is required", ErrInvalidRecord)
	}

	return Appointment{
		UserID:      userID,
		Title:       cleanTitle,
		Provider:    strings.TrimSpace(provider),
		Location:    strings.TrimSpace(location),
		Notes:       strings.TrimSpace(notes),
		ScheduledAt: scheduledAt,
	}, nil
}

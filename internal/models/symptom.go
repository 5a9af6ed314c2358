package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

type SymptomLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Symptom   string    `gorm:"not null" json:"symptom"`
	Severity  string    `gorm:"not null;default:mild" json:"severity"`
	Notes     string    `gorm:"not null;default:''" json:"notes"`
	LoggedAt  time.Time `gorm:"not null;index" json:"logged_at"`
	CreatedAt time.Time `json:"created_at"`
}

func IsValidSeverity(value string) bool {
	switch value {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	default:
		return false
	}
}

func NewSymptomLog(userID uint, symptom string, severity string, notes string, loggedAt time.Time) (SymptomLog, error) {
	if err := requireOwner(userID); err != nil {
		return SymptomLog{}, err
	}
	cleanSymptom, err := requiredField("symptom", symptom)
	if err != nil {
		return SymptomLog{}, err
	}
	cleanSeverity := strings.ToLower(strings.TrimSpace(severity))
	if cleanSeverity == "" {
		cleanSeverity = SeverityMild
	}
	if !IsValidSeverity(cleanSeverity) {
		return SymptomLog{}, fmt.Errorf("%w: severity %q is not supported", ErrInvalidRecord, severity)
	}
	if loggedAt.IsZero() {
		return SymptomLog{}, fmt.Errorf("%w: logged at is required", ErrInvalidRecord)
	}

	return SymptomLog{
		UserID:   userID,
		Symptom:  cleanSymptom,
		Severity: cleanSeverity,
		Notes:    strings.TrimSpace(notes),
		LoggedAt: loggedAt,
	}, nil
}

package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	BabyLogFeeding = "feeding"
	BabyLogDiaper  = "diaper"
	BabyLogSleep   = "sleep"
)

type Baby struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Sex       string    `gorm:"not null;default:''" json:"sex"`
	BirthDate time.Time `gorm:"type:date;not null" json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBaby(userID uint, name string, sex string, birthDate time.Time) (Baby, error) {
	if err := requireOwner(userID); err != nil {
		return Baby{}, err
	}
	cleanName, err := requiredField("name", name)
	if err != nil {
		return Baby{}, err
	}
	if birthDate.IsZero() {
		return Baby{}, fmt.Errorf("%w: birth date is required", ErrInvalidRecord)
	}

	return Baby{
		UserID:    userID,
		Name:      cleanName,
		Sex:       strings.ToLower(strings.TrimSpace(sex)),
		BirthDate: birthDate,
	}, nil
}

type BabyLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BabyID          uint      `gorm:"not null;index" json:"baby_id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	Kind            string    `gorm:"not null" json:"kind"`
	DurationMinutes int       `gorm:"not null;default:0" json:"duration_minutes"`
	AmountML        int       `gorm:"column:amount_ml;not null;default:0" json:"amount_ml"`
	Notes           string    `gorm:"not null;default:''" json:"notes"`
	LoggedAt        time.Time `gorm:"not null" json:"logged_at"`
	CreatedAt       time.Time `json:"created_at"`
}

func IsValidBabyLogKind(kind string) bool {
	switch kind {
	case BabyLogFeeding, BabyLogDiaper, BabyLogSleep:
		return true
	default:
		return false
	}
}

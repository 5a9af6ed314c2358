package models

import "time"

const (
	RoleMother    = "mother"
	RoleCaregiver = "caregiver"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:mother" json:"role"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	DisplayName string    `gorm:"not null;default:''" json:"display_name"`
	Phone       string    `gorm:"not null;default:''" json:"phone"`
	Language    string    `gorm:"not null;default:en" json:"language"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

type ChatMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Question  string         `gorm:"not null" json:"question"`
	Answer    string         `gorm:"not null" json:"answer"`
	Fallback  bool           `gorm:"not null;default:false" json:"fallback"`
	Context   datatypes.JSON `json:"context"`
	CreatedAt time.Time      `json:"created_at"`
}

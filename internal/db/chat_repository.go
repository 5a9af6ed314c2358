package db

import (
	"context"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

type ChatRepository struct {
	database *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{database: database}
}

func (repo *ChatRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	return repo.database.WithContext(ctx).Create(message).Error
}

func (repo *ChatRepository) ListRecent(ctx context.Context, userID uint, limit int) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	query := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

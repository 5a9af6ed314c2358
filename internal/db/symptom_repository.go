package db

import (
	"context"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

type SymptomRepository struct {
	database *gorm.DB
}

func NewSymptomRepository(database *gorm.DB) *SymptomRepository {
	return &SymptomRepository{database: database}
}

func (repo *SymptomRepository) Create(ctx context.Context, entry *models.SymptomLog) error {
	entry.LoggedAt = entry.LoggedAt.UTC()
	return repo.database.WithContext(ctx).Create(entry).Error
}

func (repo *SymptomRepository) ListRecent(ctx context.Context, userID uint, limit int) ([]models.SymptomLog, error) {
	entries := make([]models.SymptomLog, 0)
	query := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("logged_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

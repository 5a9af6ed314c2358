package db

import (
	"context"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

type BabyRepository struct {
	database *gorm.DB
}

func NewBabyRepository(database *gorm.DB) *BabyRepository {
	return &BabyRepository{database: database}
}

func (repo *BabyRepository) Create(ctx context.Context, baby *models.Baby) error {
	return repo.database.WithContext(ctx).Create(baby).Error
}

func (repo *BabyRepository) ListByUser(ctx context.Context, userID uint) ([]models.Baby, error) {
	babies := make([]models.Baby, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("birth_date ASC, id ASC").
		Find(&babies).Error; err != nil {
		return nil, err
	}
	return babies, nil
}

func (repo *BabyRepository) FindForUser(ctx context.Context, userID uint, babyID uint) (models.Baby, error) {
	var baby models.Baby
	if err := repo.database.WithContext(ctx).
		Where("id = ? AND user_id = ?", babyID, userID).
		First(&baby).Error; err != nil {
		return models.Baby{}, err
	}
	return baby, nil
}

func (repo *BabyRepository) CreateLog(ctx context.Context, entry *models.BabyLog) error {
	entry.LoggedAt = entry.LoggedAt.UTC()
	return repo.database.WithContext(ctx).Create(entry).Error
}

func (repo *BabyRepository) ListLogs(ctx context.Context, userID uint, babyID uint, limit int) ([]models.BabyLog, error) {
	entries := make([]models.BabyLog, 0)
	query := repo.database.WithContext(ctx).
		Where("user_id = ? AND baby_id = ?", userID, babyID).
		Order("logged_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

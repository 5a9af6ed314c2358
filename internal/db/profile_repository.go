package db

import (
	"context"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	database *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{database: database}
}

func (repo *ProfileRepository) FindByUser(ctx context.Context, userID uint) (models.Profile, error) {
	var profile models.Profile
	if err := repo.database.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

func (repo *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "phone", "language", "updated_at"}),
	}).Create(profile).Error
}

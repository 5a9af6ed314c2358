package db

import (
	"context"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PregnancyRepository struct {
	database *gorm.DB
}

func NewPregnancyRepository(database *gorm.DB) *PregnancyRepository {
	return &PregnancyRepository{database: database}
}

// FindByUser returns gorm.ErrRecordNotFound when the user has never saved
// pregnancy data.
func (repo *PregnancyRepository) FindByUser(ctx context.Context, userID uint) (models.PregnancyRecord, error) {
	var record models.PregnancyRecord
	if err := repo.database.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error; err != nil {
		return models.PregnancyRecord{}, err
	}
	return record, nil
}

// UpsertDetails writes every pregnancy field except the delivery date, which
// only moves through SetDeliveryDate.
func (repo *PregnancyRepository) UpsertDetails(ctx context.Context, record *models.PregnancyRecord) error {
	record.UpdatedAt = time.Now().UTC()
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_menstrual_period",
			"due_date",
			"weeks_pregnant",
			"is_high_risk",
			"baby_count",
			"blood_type",
			"medical_conditions",
			"medications",
			"allergies",
			"updated_at",
		}),
	}).Omit("delivery_date").Create(record).Error
}

// SetDeliveryDate upserts the delivery date; nil clears it. The row is
// created when missing so the resolved mode always follows the write.
func (repo *PregnancyRepository) SetDeliveryDate(ctx context.Context, userID uint, deliveryDate *time.Time) error {
	now := time.Now().UTC()
	record := models.PregnancyRecord{
		UserID:       userID,
		DeliveryDate: deliveryDate,
		BabyCount:    1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"delivery_date": deliveryDate,
			"updated_at":    now,
		}),
	}).Create(&record).Error
}

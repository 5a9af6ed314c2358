package db

import (
	"context"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmergencyRepository struct {
	database *gorm.DB
}

func NewEmergencyRepository(database *gorm.DB) *EmergencyRepository {
	return &EmergencyRepository{database: database}
}

func (repo *EmergencyRepository) ListContacts(ctx context.Context, userID uint) ([]models.EmergencyContact, error) {
	contacts := make([]models.EmergencyContact, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

func (repo *EmergencyRepository) CreateContact(ctx context.Context, contact *models.EmergencyContact) error {
	return repo.database.WithContext(ctx).Create(contact).Error
}

// DeleteContact returns gorm.ErrRecordNotFound when the contact does not
// belong to userID.
func (repo *EmergencyRepository) DeleteContact(ctx context.Context, userID uint, contactID uint) error {
	result := repo.database.WithContext(ctx).
		Where("id = ? AND user_id = ?", contactID, userID).
		Delete(&models.EmergencyContact{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (repo *EmergencyRepository) CreateAlert(ctx context.Context, alert *models.EmergencyAlert) error {
	return repo.database.WithContext(ctx).Create(alert).Error
}

func (repo *EmergencyRepository) ListAlerts(ctx context.Context, userID uint, limit int) ([]models.EmergencyAlert, error) {
	alerts := make([]models.EmergencyAlert, 0)
	query := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (repo *EmergencyRepository) LastAlertByType(ctx context.Context, userID uint, alertType string) (models.EmergencyAlert, error) {
	var alert models.EmergencyAlert
	if err := repo.database.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, alertType).
		Order("created_at DESC, id DESC").
		First(&alert).Error; err != nil {
		return models.EmergencyAlert{}, err
	}
	return alert, nil
}

func (repo *EmergencyRepository) FindPlanning(ctx context.Context, userID uint) (models.EmergencyPlanning, error) {
	var planning models.EmergencyPlanning
	if err := repo.database.WithContext(ctx).Where("user_id = ?", userID).First(&planning).Error; err != nil {
		return models.EmergencyPlanning{}, err
	}
	return planning, nil
}

func (repo *EmergencyRepository) SetWeeklyReminders(ctx context.Context, userID uint, enabled bool) error {
	now := time.Now().UTC()
	planning := models.EmergencyPlanning{
		UserID:          userID,
		WeeklyReminders: enabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"weekly_reminders": enabled,
			"updated_at":       now,
		}),
	}).Create(&planning).Error
}

func (repo *EmergencyRepository) ListWeeklyReminderUserIDs(ctx context.Context) ([]uint, error) {
	userIDs := make([]uint, 0)
	if err := repo.database.WithContext(ctx).
		Model(&models.EmergencyPlanning{}).
		Where("weekly_reminders = ?", true).
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (repo *EmergencyRepository) ListChecklistItems(ctx context.Context, userID uint) ([]models.EmergencyChecklistItem, error) {
	items := make([]models.EmergencyChecklistItem, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("item_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SetChecklistItem writes one (user, item) row; concurrent toggles of
// different items never overwrite each other.
func (repo *EmergencyRepository) SetChecklistItem(ctx context.Context, userID uint, itemID string, checked bool) error {
	item := models.EmergencyChecklistItem{
		UserID:    userID,
		ItemID:    itemID,
		Checked:   checked,
		UpdatedAt: time.Now().UTC(),
	}
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"checked", "updated_at"}),
	}).Create(&item).Error
}

// ImportLegacyChecklist writes the decoded blob as per-item rows and clears
// the blob in the same transaction, so the import runs at most once.
func (repo *EmergencyRepository) ImportLegacyChecklist(ctx context.Context, userID uint, checked map[string]bool) error {
	return repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for itemID, value := range checked {
			item := models.EmergencyChecklistItem{UserID: userID, ItemID: itemID, Checked: value, UpdatedAt: now}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.EmergencyPlanning{}).
			Where("user_id = ?", userID).
			Update("checklist_data", "").Error
	})
}

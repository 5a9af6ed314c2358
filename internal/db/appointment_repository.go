package db

import (
	"context"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	database *gorm.DB
}

func NewAppointmentRepository(database *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{database: database}
}

// Create stores scheduled_at in UTC so range scans compare like with like.
func (repo *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	appointment.ScheduledAt = appointment.ScheduledAt.UTC()
	return repo.database.WithContext(ctx).Create(appointment).Error
}

func (repo *AppointmentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Appointment, error) {
	appointments := make([]models.Appointment, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_at ASC, id ASC").
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (repo *AppointmentRepository) Delete(ctx context.Context, userID uint, appointmentID uint) error {
	result := repo.database.WithContext(ctx).
		Where("id = ? AND user_id = ?", appointmentID, userID).
		Delete(&models.Appointment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DueForReminder lists appointments scheduled in [from, to] that have not
// been reminded yet.
func (repo *AppointmentRepository) DueForReminder(ctx context.Context, from time.Time, to time.Time) ([]models.Appointment, error) {
	appointments := make([]models.Appointment, 0)
	if err := repo.database.WithContext(ctx).
		Where("reminder_sent_at IS NULL AND scheduled_at >= ? AND scheduled_at <= ?", from.UTC(), to.UTC()).
		Order("scheduled_at ASC").
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (repo *AppointmentRepository) MarkReminderSent(ctx context.Context, appointmentID uint, sentAt time.Time) error {
	return repo.database.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ?", appointmentID).
		Update("reminder_sent_at", sentAt.UTC()).Error
}

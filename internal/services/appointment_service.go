package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrAppointmentSaveFailed = errors.New("appointment save failed")
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	ListByUser(ctx context.Context, userID uint) ([]models.Appointment, error)
	Delete(ctx context.Context, userID uint, appointmentID uint) error
}

type AppointmentInput struct {
	Title       string
	Provider    string
	Location    string
	Notes       string
	ScheduledAt time.Time
}

type AppointmentService struct {
	appointments AppointmentRepository
}

func NewAppointmentService(appointments AppointmentRepository) *AppointmentService {
	return &AppointmentService{appointments: appointments}
}

func (service *AppointmentService) Create(ctx context.Context, userID uint, input AppointmentInput) (models.Appointment, error) {
	appointment, err := models.NewAppointment(userID, input.Title, input.Provider, input.Location, input.Notes, input.ScheduledAt)
	if err != nil {
		return models.Appointment{}, err
	}
	if err := service.appointments.Create(ctx, &appointment); err != nil {
		return models.Appointment{}, fmt.Errorf("%w: %v", ErrAppointmentSaveFailed, err)
	}
	return appointment, nil
}

func (service *AppointmentService) List(ctx context.Context, userID uint) ([]models.Appointment, error) {
	return service.appointments.ListByUser(ctx, userID)
}

func (service *AppointmentService) Delete(ctx context.Context, userID uint, appointmentID uint) error {
	err := service.appointments.Delete(ctx, userID, appointmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAppointmentSaveFailed, err)
	}
	return nil
}

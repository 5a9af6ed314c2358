package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/sms"
	"gorm.io/gorm"
)

var (
	ErrContactNotFound   = errors.New("emergency contact not found")
	ErrContactSaveFailed = errors.New("emergency contact save failed")
	ErrTooManyContacts   = errors.New("too many emergency contacts")
)

const maxEmergencyContacts = 10

type ContactRepository interface {
	ListContacts(ctx context.Context, userID uint) ([]models.EmergencyContact, error)
	CreateContact(ctx context.Context, contact *models.EmergencyContact) error
	DeleteContact(ctx context.Context, userID uint, contactID uint) error
}

type ContactInput struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
	Email        string `json:"email"`
}

type EmergencyContactService struct {
	contacts    ContactRepository
	countryCode string
}

func NewEmergencyContactService(contacts ContactRepository, countryCode string) *EmergencyContactService {
	return &EmergencyContactService{contacts: contacts, countryCode: countryCode}
}

func (service *EmergencyContactService) List(ctx context.Context, userID uint) ([]models.EmergencyContact, error) {
	return service.contacts.ListContacts(ctx, userID)
}

// Add stores the phone number in E.164 form. Validation failures wrap
// models.ErrInvalidRecord.
func (service *EmergencyContactService) Add(ctx context.Context, userID uint, input ContactInput) (models.EmergencyContact, error) {
	phone := sms.NormalizePhone(input.Phone, service.countryCode)
	if phone == "" && input.Phone != "" {
		return models.EmergencyContact{}, fmt.Errorf("%w: phone has no digits", models.ErrInvalidRecord)
	}
	contact, err := models.NewEmergencyContact(userID, input.Name, phone, input.Relationship, input.Email)
	if err != nil {
		return models.EmergencyContact{}, err
	}

	existing, err := service.contacts.ListContacts(ctx, userID)
	if err != nil {
		return models.EmergencyContact{}, fmt.Errorf("%w: %v", ErrContactSaveFailed, err)
	}
	if len(existing) >= maxEmergencyContacts {
		return models.EmergencyContact{}, ErrTooManyContacts
	}

	if err := service.contacts.CreateContact(ctx, &contact); err != nil {
		return models.EmergencyContact{}, fmt.Errorf("%w: %v", ErrContactSaveFailed, err)
	}
	return contact, nil
}

func (service *EmergencyContactService) Remove(ctx context.Context, userID uint, contactID uint) error {
	err := service.contacts.DeleteContact(ctx, userID, contactID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrContactNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrContactSaveFailed, err)
	}
	return nil
}

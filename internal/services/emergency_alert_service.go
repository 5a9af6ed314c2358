package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/mamacare/internal/broadcast"
	"github.com/terraincognita07/mamacare/internal/geo"
	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/mailer"
	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/sms"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const maxParallelAlertEmails = 4

var (
	ErrAlertPersistFailed  = errors.New("emergency alert could not be saved")
	ErrInvalidAlertType    = errors.New("invalid alert type")
	ErrNoEmergencyContacts = errors.New("no emergency contacts with a phone number")
)

type AlertRepository interface {
	ListContacts(ctx context.Context, userID uint) ([]models.EmergencyContact, error)
	CreateAlert(ctx context.Context, alert *models.EmergencyAlert) error
	ListAlerts(ctx context.Context, userID uint, limit int) ([]models.EmergencyAlert, error)
	LastAlertByType(ctx context.Context, userID uint, alertType string) (models.EmergencyAlert, error)
}

type ProfileReader interface {
	FindByUser(ctx context.Context, userID uint) (models.Profile, error)
}

type SMSSender interface {
	Send(ctx context.Context, request sms.Request) (sms.Result, error)
}

type Translator interface {
	Translatef(language string, key string, args ...any) string
}

type TriggerInput struct {
	Type      string
	Message   string
	Location  string
	Latitude  *float64
	Longitude *float64
	ClientIP  string
}

// AlertDelivery is the best-effort outcome of notifying contacts. A
// non-nil Err never means the alert was lost.
type AlertDelivery struct {
	Attempted     bool                  `json:"attempted"`
	MessagesSent  int                   `json:"messages_sent"`
	TotalContacts int                   `json:"total_contacts"`
	Results       []sms.RecipientResult `json:"results,omitempty"`
	EmailsSent    int                   `json:"emails_sent"`
	Error         string                `json:"error,omitempty"`
	Err           error                 `json:"-"`
}

type AlertResult struct {
	Alert    models.EmergencyAlert `json:"alert"`
	Delivery AlertDelivery         `json:"delivery"`
}

type EmergencyAlertDeps struct {
	Alerts      AlertRepository
	Profiles    ProfileReader
	SMS         SMSSender
	Email       mailer.Sender
	Broadcast   broadcast.Publisher
	Locator     geo.Locator
	GeoTimeout  time.Duration
	Messages    Translator
	Log         *logger.Logger
	DefaultLang string
}

type EmergencyAlertService struct {
	deps EmergencyAlertDeps
	now  func() time.Time
}

func NewEmergencyAlertService(deps EmergencyAlertDeps) *EmergencyAlertService {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Broadcast == nil {
		deps.Broadcast = broadcast.Noop()
	}
	if deps.GeoTimeout <= 0 {
		deps.GeoTimeout = 3 * time.Second
	}
	if deps.DefaultLang == "" {
		deps.DefaultLang = "en"
	}
	deps.Log = deps.Log.With("service", "EmergencyAlert")
	return &EmergencyAlertService{deps: deps, now: time.Now}
}

func IsValidAlertType(value string) bool {
	switch value {
	case models.AlertTypeEmergency, models.AlertTypeLabor, models.AlertTypeSevereSymptom:
		return true
	default:
		return false
	}
}

// Trigger writes exactly one alert row and then notifies contacts. Only a
// failed write is returned as an error; delivery problems are reported in
// AlertResult.Delivery.
func (service *EmergencyAlertService) Trigger(ctx context.Context, userID uint, input TriggerInput) (AlertResult, error) {
	alertType := strings.ToLower(strings.TrimSpace(input.Type))
	if alertType == "" {
		alertType = models.AlertTypeEmergency
	}
	if !IsValidAlertType(alertType) {
		return AlertResult{}, ErrInvalidAlertType
	}

	location := geo.Resolve(ctx, service.deps.Locator, service.deps.GeoTimeout, input.Latitude, input.Longitude, input.Location, input.ClientIP)
	displayName, language := service.sender(ctx, userID)
	contacts, contactsErr := service.deps.Alerts.ListContacts(ctx, userID)
	if contactsErr != nil {
		service.deps.Log.Error("load emergency contacts failed", "user_id", userID, "error", contactsErr.Error())
	}

	alert, err := models.NewEmergencyAlert(userID, uuid.NewString(), alertType, input.Message, location, service.now().UTC())
	if err != nil {
		return AlertResult{}, fmt.Errorf("%w: %v", ErrAlertPersistFailed, err)
	}
	if err := service.deps.Alerts.CreateAlert(ctx, &alert); err != nil {
		service.deps.Log.Error("emergency alert persist failed", "user_id", userID, "error", err.Error())
		return AlertResult{}, fmt.Errorf("%w: %v", ErrAlertPersistFailed, err)
	}
	service.deps.Log.Info("emergency alert recorded", "user_id", userID, "reference", alert.Reference, "type", alert.Type)

	result := AlertResult{Alert: alert}
	switch {
	case contactsErr != nil:
		result.Delivery.Err = fmt.Errorf("load contacts: %w", contactsErr)
	default:
		result.Delivery = service.notify(ctx, alert, contacts, displayName, language)
	}
	if result.Delivery.Err != nil {
		result.Delivery.Error = result.Delivery.Err.Error()
	}

	event := broadcast.AlertEvent{
		Reference:        alert.Reference,
		UserID:           alert.UserID,
		Type:             alert.Type,
		Message:          alert.Message,
		Location:         alert.Location,
		ContactsNotified: result.Delivery.MessagesSent,
		CreatedAt:        alert.CreatedAt,
	}
	if err := service.deps.Broadcast.Publish(ctx, event); err != nil {
		service.deps.Log.Warn("alert broadcast failed", "reference", alert.Reference, "error", err.Error())
	}

	return result, nil
}

func (service *EmergencyAlertService) History(ctx context.Context, userID uint, limit int) ([]models.EmergencyAlert, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return service.deps.Alerts.ListAlerts(ctx, userID, limit)
}

// LastAlertAt returns the creation time of the newest alert of alertType,
// or the zero time when there is none.
func (service *EmergencyAlertService) LastAlertAt(ctx context.Context, userID uint, alertType string) (time.Time, error) {
	alert, err := service.deps.Alerts.LastAlertByType(ctx, userID, alertType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return alert.CreatedAt, nil
}

func (service *EmergencyAlertService) sender(ctx context.Context, userID uint) (string, string) {
	if service.deps.Profiles == nil {
		return "", service.deps.DefaultLang
	}
	profile, err := service.deps.Profiles.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			service.deps.Log.Warn("load profile for alert failed", "user_id", userID, "error", err.Error())
		}
		return "", service.deps.DefaultLang
	}
	language := strings.TrimSpace(profile.Language)
	if language == "" {
		language = service.deps.DefaultLang
	}
	return strings.TrimSpace(profile.DisplayName), language
}

func (service *EmergencyAlertService) notify(ctx context.Context, alert models.EmergencyAlert, contacts []models.EmergencyContact, displayName string, language string) AlertDelivery {
	recipients := make([]sms.Recipient, 0, len(contacts))
	emails := make([]mailer.Address, 0, len(contacts))
	for _, contact := range contacts {
		if strings.TrimSpace(contact.Phone) != "" {
			recipients = append(recipients, sms.Recipient{Name: contact.Name, Phone: contact.Phone})
		}
		if strings.TrimSpace(contact.Email) != "" {
			emails = append(emails, mailer.Address{Email: contact.Email, Name: contact.Name})
		}
	}

	body := service.translate(language, "alert.body", alert.Message+" Location: "+alert.Location, alert.Message, alert.Location)
	delivery := service.textContacts(ctx, alert, recipients, displayName, language, body)
	delivery.EmailsSent = service.email(ctx, alert, emails, displayName, language, body)
	return delivery
}

// textContacts makes the single SMS call for an alert. It runs before any
// email so a slow mail provider cannot hold back the text messages.
func (service *EmergencyAlertService) textContacts(ctx context.Context, alert models.EmergencyAlert, recipients []sms.Recipient, displayName string, language string, body string) AlertDelivery {
	delivery := AlertDelivery{TotalContacts: len(recipients)}
	if len(recipients) == 0 {
		delivery.Err = ErrNoEmergencyContacts
		return delivery
	}
	if service.deps.SMS == nil {
		delivery.Err = sms.ErrNotConfigured
		return delivery
	}

	delivery.Attempted = true
	outcome, err := service.deps.SMS.Send(ctx, sms.Request{
		EmergencyContacts: recipients,
		Message:           body,
		UserName:          displayName,
		MessageType:       sms.MessageEmergency,
		Language:          language,
	})
	delivery.MessagesSent = outcome.MessagesSent
	if outcome.TotalContacts > 0 {
		delivery.TotalContacts = outcome.TotalContacts
	}
	delivery.Results = outcome.Results
	if err != nil {
		service.deps.Log.Warn("emergency sms delivery failed", "reference", alert.Reference, "error", err.Error())
		delivery.Err = err
	}
	return delivery
}

func (service *EmergencyAlertService) email(ctx context.Context, alert models.EmergencyAlert, to []mailer.Address, displayName string, language string, body string) int {
	if service.deps.Email == nil || len(to) == 0 {
		return 0
	}
	sender := displayName
	if sender == "" {
		sender = service.translate(language, "sms.unknown_sender", "a MamaCare user")
	}
	subject := service.translate(language, "email.alert_subject", "Emergency alert from "+sender, sender)
	footer := service.translate(language, "email.alert_footer", "", sender)
	text := body + "\n\nReference: " + alert.Reference
	if footer != "" {
		text += "\n\n" + footer
	}

	var sent atomic.Int32
	var group errgroup.Group
	group.SetLimit(maxParallelAlertEmails)
	for _, address := range to {
		group.Go(func() error {
			if _, err := service.deps.Email.Send(ctx, mailer.Message{To: []mailer.Address{address}, Subject: subject, Text: text}); err != nil {
				service.deps.Log.Warn("emergency email delivery failed", "reference", alert.Reference, "error", err.Error())
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = group.Wait()
	return int(sent.Load())
}

func (service *EmergencyAlertService) translate(language string, key string, fallback string, args ...any) string {
	if service.deps.Messages == nil {
		return fallback
	}
	return service.deps.Messages.Translatef(language, key, args...)
}

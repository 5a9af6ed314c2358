package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/mamacare/internal/broadcast"
	"github.com/terraincognita07/mamacare/internal/geo"
	"github.com/terraincognita07/mamacare/internal/mailer"
	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/sms"
	"gorm.io/gorm"
)

type stubAlertRepo struct {
	contacts  []models.EmergencyContact
	alerts    []models.EmergencyAlert
	createErr error
}

func (stub *stubAlertRepo) ListContacts(context.Context, uint) ([]models.EmergencyContact, error) {
	return stub.contacts, nil
}

func (stub *stubAlertRepo) CreateAlert(_ context.Context, alert *models.EmergencyAlert) error {
	if stub.createErr != nil {
		return stub.createErr
	}
	alert.ID = uint(len(stub.alerts) + 1)
	stub.alerts = append(stub.alerts, *alert)
	return nil
}

func (stub *stubAlertRepo) ListAlerts(context.Context, uint, int) ([]models.EmergencyAlert, error) {
	return stub.alerts, nil
}

func (stub *stubAlertRepo) LastAlertByType(_ context.Context, _ uint, alertType string) (models.EmergencyAlert, error) {
	for index := len(stub.alerts) - 1; index >= 0; index-- {
		if stub.alerts[index].Type == alertType {
			return stub.alerts[index], nil
		}
	}
	return models.EmergencyAlert{}, gorm.ErrRecordNotFound
}

type stubProfiles struct {
	profiles map[uint]models.Profile
}

func (stub *stubProfiles) FindByUser(_ context.Context, userID uint) (models.Profile, error) {
	profile, ok := stub.profiles[userID]
	if !ok {
		return models.Profile{}, gorm.ErrRecordNotFound
	}
	return profile, nil
}

type stubSMSSender struct {
	err      error
	requests []sms.Request
}

func (stub *stubSMSSender) Send(_ context.Context, request sms.Request) (sms.Result, error) {
	stub.requests = append(stub.requests, request)
	total := len(request.EmergencyContacts)
	if total == 0 && request.PhoneNumber != "" {
		total = 1
	}
	if stub.err != nil {
		return sms.Result{TotalContacts: total}, stub.err
	}
	return sms.Result{Success: true, MessagesSent: total, TotalContacts: total}, nil
}

type stubPublisher struct {
	err    error
	events []broadcast.AlertEvent
}

func (stub *stubPublisher) Publish(_ context.Context, event broadcast.AlertEvent) error {
	stub.events = append(stub.events, event)
	return stub.err
}

func (stub *stubPublisher) Close() error { return nil }

type stubMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	calls    *callLog
}

func (stub *stubMailer) Send(_ context.Context, message mailer.Message) (string, error) {
	stub.calls.record("email")
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.messages = append(stub.messages, message)
	return "msg-1", nil
}

// callLog records the order in which outbound channels were used.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (log *callLog) record(call string) {
	if log == nil {
		return
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	log.calls = append(log.calls, call)
}

type orderedSMSSender struct {
	stubSMSSender
	calls *callLog
}

func (stub *orderedSMSSender) Send(ctx context.Context, request sms.Request) (sms.Result, error) {
	stub.calls.record("sms")
	return stub.stubSMSSender.Send(ctx, request)
}

type failingLocator struct{}

func (failingLocator) Locate(context.Context, string) (geo.Position, error) {
	return geo.Position{}, geo.ErrUnavailable
}

func twoContacts() []models.EmergencyContact {
	return []models.EmergencyContact{
		{ID: 1, UserID: 1, Name: "Ada", Phone: "+2348012345678", Email: "ada@example.com"},
		{ID: 2, UserID: 1, Name: "Bisi", Phone: "+2348098765432"},
	}
}

func TestTriggerWritesOneAlertEvenWhenSMSFails(t *testing.T) {
	alerts := &stubAlertRepo{contacts: twoContacts()}
	sender := &stubSMSSender{err: sms.ErrDeliveryFailed}
	publisher := &stubPublisher{}
	service := NewEmergencyAlertService(EmergencyAlertDeps{
		Alerts:    alerts,
		Profiles:  &stubProfiles{profiles: map[uint]models.Profile{1: {UserID: 1, DisplayName: "Amaka"}}},
		SMS:       sender,
		Broadcast: publisher,
	})

	result, err := service.Trigger(context.Background(), 1, TriggerInput{Message: "Heavy bleeding", Location: "Home"})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if len(alerts.alerts) != 1 {
		t.Fatalf("stored %d alerts, want exactly 1", len(alerts.alerts))
	}
	if result.Alert.Reference == "" || result.Alert.Type != models.AlertTypeEmergency {
		t.Fatalf("alert = %+v", result.Alert)
	}
	if !result.Delivery.Attempted || !errors.Is(result.Delivery.Err, sms.ErrDeliveryFailed) || result.Delivery.Error == "" {
		t.Fatalf("delivery = %+v, want attempted with failure", result.Delivery)
	}
	if len(sender.requests) != 1 || len(sender.requests[0].EmergencyContacts) != 2 {
		t.Fatalf("expected one dispatch with both contacts, got %+v", sender.requests)
	}
	request := sender.requests[0]
	if request.MessageType != sms.MessageEmergency || request.UserName != "Amaka" {
		t.Fatalf("dispatch request = %+v", request)
	}
	if request.Message != "Heavy bleeding Location: Home" {
		t.Fatalf("message = %q", request.Message)
	}
	if len(publisher.events) != 1 || publisher.events[0].Reference != result.Alert.Reference {
		t.Fatalf("expected one broadcast event for the alert, got %+v", publisher.events)
	}
}

func TestTriggerPersistFailureSkipsDelivery(t *testing.T) {
	sender := &stubSMSSender{}
	service := NewEmergencyAlertService(EmergencyAlertDeps{
		Alerts: &stubAlertRepo{contacts: twoContacts(), createErr: errors.New("readonly")},
		SMS:    sender,
	})

	_, err := service.Trigger(context.Background(), 1, TriggerInput{})
	if !errors.Is(err, ErrAlertPersistFailed) {
		t.Fatalf("expected ErrAlertPersistFailed, got %v", err)
	}
	if len(sender.requests) != 0 {
		t.Fatal("no sms may be sent when the alert was not stored")
	}
}

func TestTriggerWithoutContactsStillRecords(t *testing.T) {
	alerts := &stubAlertRepo{}
	service := NewEmergencyAlertService(EmergencyAlertDeps{Alerts: alerts, SMS: &stubSMSSender{}})

	result, err := service.Trigger(context.Background(), 1, TriggerInput{Type: "labor"})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if len(alerts.alerts) != 1 || result.Alert.Message != models.DefaultAlertMessage {
		t.Fatalf("alerts = %+v", alerts.alerts)
	}
	if result.Delivery.Attempted || !errors.Is(result.Delivery.Err, ErrNoEmergencyContacts) {
		t.Fatalf("delivery = %+v, want not attempted", result.Delivery)
	}
}

func TestTriggerRejectsUnknownType(t *testing.T) {
	alerts := &stubAlertRepo{}
	service := NewEmergencyAlertService(EmergencyAlertDeps{Alerts: alerts})
	if _, err := service.Trigger(context.Background(), 1, TriggerInput{Type: "party"}); !errors.Is(err, ErrInvalidAlertType) {
		t.Fatalf("expected ErrInvalidAlertType, got %v", err)
	}
	if len(alerts.alerts) != 0 {
		t.Fatal("invalid input must not write an alert")
	}
}

type fixedPositionLocator struct {
	position geo.Position
}

func (locator fixedPositionLocator) Locate(context.Context, string) (geo.Position, error) {
	return locator.position, nil
}

func TestTriggerKeepsTypedLocation(t *testing.T) {
	alerts := &stubAlertRepo{contacts: twoContacts()}
	sender := &stubSMSSender{}
	service := NewEmergencyAlertService(EmergencyAlertDeps{
		Alerts:     alerts,
		SMS:        sender,
		Locator:    fixedPositionLocator{position: geo.Position{Latitude: 50.11, Longitude: 8.68, City: "Frankfurt", Country: "Germany"}},
		GeoTimeout: time.Second,
	})

	result, err := service.Trigger(context.Background(), 1, TriggerInput{Message: "Labor started", Location: "12 Allen Avenue, Ikeja, Lagos", ClientIP: "102.89.34.10"})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if result.Alert.Location != "12 Allen Avenue, Ikeja, Lagos" || alerts.alerts[0].Location != result.Alert.Location {
		t.Fatalf("stored location = %q, want the typed address", result.Alert.Location)
	}
	if !strings.Contains(sender.requests[0].Message, "12 Allen Avenue") || strings.Contains(sender.requests[0].Message, "Frankfurt") {
		t.Fatalf("sms body = %q, want the typed address", sender.requests[0].Message)
	}
}

func TestTriggerLocation(t *testing.T) {
	latitude, longitude := 6.5244, 3.3792

	alerts := &stubAlertRepo{}
	service := NewEmergencyAlertService(EmergencyAlertDeps{Alerts: alerts, Locator: failingLocator{}, GeoTimeout: time.Second})

	result, err := service.Trigger(context.Background(), 1, TriggerInput{Latitude: &latitude, Longitude: &longitude})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if !strings.Contains(result.Alert.Location, "maps.google.com/?q=6.52440,3.37920") {
		t.Fatalf("location = %q, want map link", result.Alert.Location)
	}

	result, err = service.Trigger(context.Background(), 1, TriggerInput{})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if result.Alert.Location != geo.DefaultLocation {
		t.Fatalf("location = %q, want %q", result.Alert.Location, geo.DefaultLocation)
	}
}

func TestTriggerEmailsContactsIndividually(t *testing.T) {
	mail := &stubMailer{}
	contacts := append(twoContacts(), models.EmergencyContact{ID: 3, UserID: 1, Name: "Chidi", Phone: "+2348011111111", Email: "chidi@example.com"})
	service := NewEmergencyAlertService(EmergencyAlertDeps{
		Alerts: &stubAlertRepo{contacts: contacts},
		SMS:    &stubSMSSender{},
		Email:  mail,
	})

	result, err := service.Trigger(context.Background(), 1, TriggerInput{Message: "Help"})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if result.Delivery.EmailsSent != 2 || len(mail.messages) != 2 {
		t.Fatalf("emails sent = %d, want 2", result.Delivery.EmailsSent)
	}
	for _, message := range mail.messages {
		if len(message.To) != 1 {
			t.Fatalf("each email must have one recipient, got %d", len(message.To))
		}
	}
	if result.Delivery.MessagesSent != 3 || result.Delivery.Err != nil {
		t.Fatalf("delivery = %+v", result.Delivery)
	}
}

func TestTriggerTextsContactsBeforeEmailing(t *testing.T) {
	calls := &callLog{}
	contacts := append(twoContacts(), models.EmergencyContact{ID: 3, UserID: 1, Name: "Chidi", Phone: "+2348011111111", Email: "chidi@example.com"})
	service := NewEmergencyAlertService(EmergencyAlertDeps{
		Alerts: &stubAlertRepo{contacts: contacts},
		SMS:    &orderedSMSSender{calls: calls},
		Email:  &stubMailer{calls: calls},
	})

	if _, err := service.Trigger(context.Background(), 1, TriggerInput{Message: "Help"}); err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if got := strings.Join(calls.calls, ","); got != "sms,email,email" {
		t.Fatalf("delivery order = %s, want sms,email,email", got)
	}
}

func TestLastAlertAt(t *testing.T) {
	created := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	alerts := &stubAlertRepo{alerts: []models.EmergencyAlert{{UserID: 1, Type: models.AlertTypeSevereSymptom, CreatedAt: created}}}
	service := NewEmergencyAlertService(EmergencyAlertDeps{Alerts: alerts})

	got, err := service.LastAlertAt(context.Background(), 1, models.AlertTypeSevereSymptom)
	if err != nil || !got.Equal(created) {
		t.Fatalf("LastAlertAt() = (%s, %v), want %s", got, err, created)
	}
	got, err = service.LastAlertAt(context.Background(), 1, models.AlertTypeLabor)
	if err != nil || !got.IsZero() {
		t.Fatalf("LastAlertAt(labor) = (%s, %v), want zero", got, err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/sms"
	"gorm.io/gorm"
)

type ReminderAppointmentRepository interface {
	DueForReminder(ctx context.Context, from time.Time, to time.Time) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, appointmentID uint, sentAt time.Time) error
}

type ReminderPlanningRepository interface {
	ListWeeklyReminderUserIDs(ctx context.Context) ([]uint, error)
	ListChecklistItems(ctx context.Context, userID uint) ([]models.EmergencyChecklistItem, error)
}

type ReminderPregnancyRepository interface {
	FindByUser(ctx context.Context, userID uint) (models.PregnancyRecord, error)
}

type ReminderDeps struct {
	Appointments ReminderAppointmentRepository
	Planning     ReminderPlanningRepository
	Pregnancies  ReminderPregnancyRepository
	Profiles     ProfileReader
	SMS          SMSSender
	Messages     Translator
	Log          *logger.Logger
	Location     *time.Location
	Interval     time.Duration
	Lead         time.Duration
}

// ReminderService periodically sends appointment and weekly planning SMS
// reminders to the user's own phone.
type ReminderService struct {
	deps ReminderDeps
	now  func() time.Time

	mu           sync.Mutex
	sentPlanning map[string]time.Time
}

func NewReminderService(deps ReminderDeps) *ReminderService {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Hour
	}
	if deps.Lead <= 0 {
		deps.Lead = 24 * time.Hour
	}
	deps.Log = deps.Log.With("service", "Reminders")
	return &ReminderService{
		deps:         deps,
		now:          time.Now,
		sentPlanning: make(map[string]time.Time),
	}
}

// Start runs one pass immediately and then every interval until ctx is
// done. Without an SMS sender it does nothing.
func (service *ReminderService) Start(ctx context.Context) {
	if service.deps.SMS == nil {
		service.deps.Log.Info("reminders disabled: sms not configured")
		return
	}

	ticker := time.NewTicker(service.deps.Interval)
	go func() {
		defer ticker.Stop()

		service.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				service.RunOnce(ctx)
			}
		}
	}()
}

type ReminderRunStats struct {
	AppointmentsSent int
	PlanningSent     int
}

func (service *ReminderService) RunOnce(ctx context.Context) ReminderRunStats {
	stats := ReminderRunStats{}
	if service.deps.SMS == nil {
		return stats
	}
	now := service.now()
	stats.AppointmentsSent = service.runAppointments(ctx, now)
	stats.PlanningSent = service.runPlanning(ctx, now)
	return stats
}

func (service *ReminderService) runAppointments(ctx context.Context, now time.Time) int {
	if service.deps.Appointments == nil {
		return 0
	}
	due, err := service.deps.Appointments.DueForReminder(ctx, now.UTC(), now.Add(service.deps.Lead).UTC())
	if err != nil {
		service.deps.Log.Error("fetch due appointments failed", "error", err.Error())
		return 0
	}

	sent := 0
	for _, appointment := range due {
		profile, ok := service.recipient(ctx, appointment.UserID)
		if ok {
			at := appointment.ScheduledAt.In(service.deps.Location)
			details := appointment.Title
			if provider := strings.TrimSpace(appointment.Provider); provider != "" {
				details += " with " + provider
			}
			message := service.translate(profile.Language, "reminder.appointment",
				fmt.Sprintf("%s on %s at %s", details, at.Format("Mon Jan 2"), at.Format("15:04")),
				details, at.Format("Mon Jan 2"), at.Format("15:04"))
			if !service.send(ctx, profile, sms.MessageAppointment, message) {
				continue
			}
			sent++
		}
		if err := service.deps.Appointments.MarkReminderSent(ctx, appointment.ID, now.UTC()); err != nil {
			service.deps.Log.Error("mark reminder sent failed", "appointment_id", appointment.ID, "error", err.Error())
		}
	}
	return sent
}

func (service *ReminderService) runPlanning(ctx context.Context, now time.Time) int {
	if service.deps.Planning == nil || service.deps.Pregnancies == nil {
		return 0
	}
	userIDs, err := service.deps.Planning.ListWeeklyReminderUserIDs(ctx)
	if err != nil {
		service.deps.Log.Error("fetch weekly reminder users failed", "error", err.Error())
		return 0
	}

	today := DateAtLocation(now, service.deps.Location)
	service.pruneSent(today)
	sent := 0
	for _, userID := range userIDs {
		record, err := service.deps.Pregnancies.FindByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				service.deps.Log.Warn("fetch pregnancy for reminder failed", "user_id", userID, "error", err.Error())
			}
			continue
		}
		if ResolveMode(&record).Mode != models.ModePregnancy {
			continue
		}
		week := ResolveWeek(&record, now)
		item, ok := roadmapItemForWeek(week)
		if !ok {
			continue
		}
		if service.itemChecked(ctx, userID, item.ID) {
			continue
		}

		key := fmt.Sprintf("planning:%d:%d", userID, week)
		if service.recentlySent(key, today) {
			continue
		}
		profile, ok := service.recipient(ctx, userID)
		if !ok {
			continue
		}
		message := service.translate(profile.Language, "reminder.weekly_planning",
			fmt.Sprintf("Week %d emergency plan task: %s.", week, item.Label), week, item.Label)
		if !service.send(ctx, profile, sms.MessageHealthTip, message) {
			continue
		}
		service.markSent(key, today)
		sent++
	}
	return sent
}

func (service *ReminderService) itemChecked(ctx context.Context, userID uint, itemID string) bool {
	items, err := service.deps.Planning.ListChecklistItems(ctx, userID)
	if err != nil {
		return false
	}
	for _, item := range items {
		if item.ItemID == itemID {
			return item.Checked
		}
	}
	return false
}

const planningReminderWindow = 7 * 24 * time.Hour

func (service *ReminderService) recentlySent(key string, today time.Time) bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	sentOn, ok := service.sentPlanning[key]
	return ok && today.Sub(sentOn) < planningReminderWindow
}

func (service *ReminderService) markSent(key string, today time.Time) {
	service.mu.Lock()
	defer service.mu.Unlock()
	service.sentPlanning[key] = today
}

// pruneSent drops planning keys that have aged out of the window.
func (service *ReminderService) pruneSent(today time.Time) {
	service.mu.Lock()
	defer service.mu.Unlock()

	for key, sentOn := range service.sentPlanning {
		if today.Sub(sentOn) >= planningReminderWindow {
			delete(service.sentPlanning, key)
		}
	}
}

func (service *ReminderService) recipient(ctx context.Context, userID uint) (models.Profile, bool) {
	if service.deps.Profiles == nil {
		return models.Profile{}, false
	}
	profile, err := service.deps.Profiles.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			service.deps.Log.Warn("fetch profile for reminder failed", "user_id", userID, "error", err.Error())
		}
		return models.Profile{}, false
	}
	if strings.TrimSpace(profile.Phone) == "" {
		return models.Profile{}, false
	}
	return profile, true
}

func (service *ReminderService) send(ctx context.Context, profile models.Profile, messageType sms.MessageType, message string) bool {
	_, err := service.deps.SMS.Send(ctx, sms.Request{
		PhoneNumber: profile.Phone,
		Message:     message,
		UserName:    profile.DisplayName,
		MessageType: messageType,
		Language:    profile.Language,
	})
	if err != nil {
		service.deps.Log.Warn("reminder sms failed", "user_id", profile.UserID, "type", string(messageType), "error", err.Error())
		return false
	}
	return true
}

func (service *ReminderService) translate(language string, key string, fallback string, args ...any) string {
	if service.deps.Messages == nil {
		return fallback
	}
	return service.deps.Messages.Translatef(language, key, args...)
}

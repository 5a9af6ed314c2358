package api

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/mamacare/internal/broadcast"
	"github.com/terraincognita07/mamacare/internal/db"
	"github.com/terraincognita07/mamacare/internal/geo"
	"github.com/terraincognita07/mamacare/internal/i18n"
	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/mailer"
	"github.com/terraincognita07/mamacare/internal/places"
	"github.com/terraincognita07/mamacare/internal/services"
	"gorm.io/gorm"
)

type NearbyFinder interface {
	Nearby(ctx context.Context, latitude float64, longitude float64, radius int) ([]places.Place, error)
}

// Integrations are the outbound clients. Nil SMS, Email, Places or
// Locator disable that feature; Assistant is required.
type Integrations struct {
	SMS           services.SMSSender
	Assistant     services.ChatReplier
	Places        NearbyFinder
	Email         mailer.Sender
	Broadcast     broadcast.Publisher
	Locator       geo.Locator
	I18n          *i18n.Manager
	Log           *logger.Logger
	Location      *time.Location
	CountryCode   string
	GeoTimeout    time.Duration
	SymptomPolicy services.SevereSymptomPolicy
	SessionTTL    time.Duration
	ReminderEvery time.Duration
	ReminderLead  time.Duration
}

type Dependencies struct {
	Repositories *db.Repositories
	Sessions     *services.SessionStore
	Auth         *services.AuthService
	Modes        *services.ModeService
	Profiles     *services.ProfileService
	Pregnancies  *services.PregnancyService
	Contacts     *services.EmergencyContactService
	Alerts       *services.EmergencyAlertService
	Planning     *services.EmergencyPlanningService
	Symptoms     *services.SymptomService
	Appointments *services.AppointmentService
	Babies       *services.BabyService
	Chat         *services.ChatService
	Reminders    *services.ReminderService

	SMS       services.SMSSender
	Assistant services.ChatReplier
	Places    NearbyFinder
	I18n      *i18n.Manager
	Log       *logger.Logger
}

// NewDependencies builds every repository and service on top of database.
func NewDependencies(database *gorm.DB, integrations Integrations) Dependencies {
	log := integrations.Log
	if log == nil {
		log = logger.Nop()
	}
	repositories := db.NewRepositories(database)

	modes := services.NewModeService(repositories.Pregnancies, log, integrations.Location)
	alerts := services.NewEmergencyAlertService(services.EmergencyAlertDeps{
		Alerts:      repositories.Emergency,
		Profiles:    repositories.Profiles,
		SMS:         integrations.SMS,
		Email:       integrations.Email,
		Broadcast:   integrations.Broadcast,
		Locator:     integrations.Locator,
		GeoTimeout:  integrations.GeoTimeout,
		Messages:    integrations.I18n,
		Log:         log,
		DefaultLang: defaultLanguage(integrations.I18n),
	})

	return Dependencies{
		Repositories: repositories,
		Sessions:     services.NewSessionStore(integrations.SessionTTL),
		Auth:         services.NewAuthService(repositories.Users, integrations.I18n),
		Modes:        modes,
		Profiles:     services.NewProfileService(repositories.Profiles, integrations.I18n, integrations.CountryCode),
		Pregnancies:  services.NewPregnancyService(repositories.Pregnancies, modes, log, integrations.Location),
		Contacts:     services.NewEmergencyContactService(repositories.Emergency, integrations.CountryCode),
		Alerts:       alerts,
		Planning:     services.NewEmergencyPlanningService(repositories.Emergency, log),
		Symptoms:     services.NewSymptomService(repositories.Symptoms, alerts, integrations.SymptomPolicy, log),
		Appointments: services.NewAppointmentService(repositories.Appointments),
		Babies:       services.NewBabyService(repositories.Babies, modes),
		Chat: services.NewChatService(services.ChatDeps{
			Messages:    repositories.Chat,
			Assistant:   integrations.Assistant,
			Modes:       modes,
			Pregnancies: repositories.Pregnancies,
			Babies:      repositories.Babies,
			Log:         log,
		}),
		Reminders: services.NewReminderService(services.ReminderDeps{
			Appointments: repositories.Appointments,
			Planning:     repositories.Emergency,
			Pregnancies:  repositories.Pregnancies,
			Profiles:     repositories.Profiles,
			SMS:          integrations.SMS,
			Messages:     integrations.I18n,
			Log:          log,
			Location:     integrations.Location,
			Interval:     integrations.ReminderEvery,
			Lead:         integrations.ReminderLead,
		}),
		SMS:       integrations.SMS,
		Assistant: integrations.Assistant,
		Places:    integrations.Places,
		I18n:      integrations.I18n,
		Log:       log,
	}
}

func (deps Dependencies) validate() error {
	switch {
	case deps.Sessions == nil, deps.Auth == nil, deps.Modes == nil:
		return errors.New("auth and mode services are required")
	case deps.Profiles == nil, deps.Pregnancies == nil:
		return errors.New("profile and pregnancy services are required")
	case deps.Contacts == nil, deps.Alerts == nil, deps.Planning == nil:
		return errors.New("emergency services are required")
	case deps.Symptoms == nil, deps.Appointments == nil, deps.Babies == nil, deps.Chat == nil:
		return errors.New("tracking services are required")
	case deps.Assistant == nil:
		return errors.New("chat assistant is required")
	}
	return nil
}

func defaultLanguage(manager *i18n.Manager) string {
	if manager == nil {
		return ""
	}
	return manager.DefaultLanguage()
}

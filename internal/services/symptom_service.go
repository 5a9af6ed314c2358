package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/models"
)

var ErrSymptomSaveFailed = errors.New("symptom save failed")

type SymptomLogRepository interface {
	Create(ctx context.Context, entry *models.SymptomLog) error
	ListRecent(ctx context.Context, userID uint, limit int) ([]models.SymptomLog, error)
}

type AlertTrigger interface {
	Trigger(ctx context.Context, userID uint, input TriggerInput) (AlertResult, error)
	LastAlertAt(ctx context.Context, userID uint, alertType string) (time.Time, error)
}

// SevereSymptomPolicy decides whether a severe symptom log raises an
// emergency alert on its own. Cooldown suppresses repeats.
type SevereSymptomPolicy struct {
	AutoAlert bool
	Cooldown  time.Duration
}

type SymptomInput struct {
	Symptom   string
	Severity  string
	Notes     string
	LoggedAt  time.Time
	Latitude  *float64
	Longitude *float64
}

type SymptomLogResult struct {
	Log          models.SymptomLog `json:"log"`
	Alert        *AlertResult      `json:"alert,omitempty"`
	AlertSkipped string            `json:"alert_skipped,omitempty"`
}

type SymptomService struct {
	logs   SymptomLogRepository
	alerts AlertTrigger
	policy SevereSymptomPolicy
	log    *logger.Logger
	now    func() time.Time
}

func NewSymptomService(logs SymptomLogRepository, alerts AlertTrigger, policy SevereSymptomPolicy, log *logger.Logger) *SymptomService {
	if log == nil {
		log = logger.Nop()
	}
	return &SymptomService{logs: logs, alerts: alerts, policy: policy, log: log, now: time.Now}
}

func (service *SymptomService) Log(ctx context.Context, userID uint, input SymptomInput) (SymptomLogResult, error) {
	loggedAt := input.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = service.now()
	}
	entry, err := models.NewSymptomLog(userID, input.Symptom, input.Severity, input.Notes, loggedAt)
	if err != nil {
		return SymptomLogResult{}, err
	}
	if err := service.logs.Create(ctx, &entry); err != nil {
		return SymptomLogResult{}, fmt.Errorf("%w: %v", ErrSymptomSaveFailed, err)
	}

	result := SymptomLogResult{Log: entry}
	if entry.Severity != models.SeveritySevere {
		return result, nil
	}
	if !service.policy.AutoAlert || service.alerts == nil {
		result.AlertSkipped = "auto alert disabled"
		return result, nil
	}

	if service.policy.Cooldown > 0 {
		last, err := service.alerts.LastAlertAt(ctx, userID, models.AlertTypeSevereSymptom)
		if err != nil {
			service.log.Warn("severe symptom cooldown lookup failed", "user_id", userID, "error", err.Error())
		} else if !last.IsZero() && service.now().Sub(last) < service.policy.Cooldown {
			result.AlertSkipped = "recent severe symptom alert"
			return result, nil
		}
	}

	alert, err := service.alerts.Trigger(ctx, userID, TriggerInput{
		Type:      models.AlertTypeSevereSymptom,
		Message:   severeSymptomMessage(entry),
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	})
	if err != nil {
		service.log.Error("severe symptom alert failed", "user_id", userID, "error", err.Error())
		result.AlertSkipped = err.Error()
		return result, nil
	}
	result.Alert = &alert
	return result, nil
}

func (service *SymptomService) Recent(ctx context.Context, userID uint, limit int) ([]models.SymptomLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return service.logs.ListRecent(ctx, userID, limit)
}

func severeSymptomMessage(entry models.SymptomLog) string {
	message := "Severe symptom reported: " + entry.Symptom + "."
	if notes := strings.TrimSpace(entry.Notes); notes != "" {
		message += " " + notes
	}
	return message
}

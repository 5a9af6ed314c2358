package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

var (
	ErrModeResolveFailed      = errors.New("mode resolve failed")
	ErrModeTransitionFailed   = errors.New("mode transition failed")
	ErrInvalidModeChoice      = errors.New("invalid mode choice")
	ErrInvalidModeTransition  = errors.New("invalid mode transition")
	ErrPregnancyRecordMissing = errors.New("pregnancy record missing")
)

type ModeRecordRepository interface {
	FindByUser(ctx context.Context, userID uint) (models.PregnancyRecord, error)
	SetDeliveryDate(ctx context.Context, userID uint, deliveryDate *time.Time) error
}

type ModeService struct {
	records  ModeRecordRepository
	log      *logger.Logger
	location *time.Location
	now      func() time.Time
}

func NewModeService(records ModeRecordRepository, log *logger.Logger, location *time.Location) *ModeService {
	if log == nil {
		log = logger.Nop()
	}
	if location == nil {
		location = time.UTC
	}
	return &ModeService{records: records, log: log, location: location, now: time.Now}
}

// ResolveMode maps a pregnancy record lookup to a mode: no record is
// onboarding, a delivery date is postpartum, anything else is pregnancy.
func ResolveMode(record *models.PregnancyRecord) ModeState {
	if record == nil {
		return ModeState{Mode: models.ModeOnboarding}
	}
	if record.DeliveryDate != nil && !record.DeliveryDate.IsZero() {
		date := *record.DeliveryDate
		return ModeState{Mode: models.ModePostpartum, DeliveryDate: &date}
	}
	return ModeState{Mode: models.ModePregnancy}
}

func (service *ModeService) Resolve(ctx context.Context, userID uint) (ModeState, error) {
	record, err := service.records.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ResolveMode(nil), nil
	}
	if err != nil {
		return ModeState{}, fmt.Errorf("%w: %v", ErrModeResolveFailed, err)
	}
	return ResolveMode(&record), nil
}

// Current returns the session's mode, resolving it from the store on first
// use.
func (service *ModeService) Current(ctx context.Context, session *Session) (ModeState, error) {
	if state, resolved := session.State(); resolved {
		return state, nil
	}
	return service.Refresh(ctx, session)
}

// Refresh re-runs resolution and overwrites the session state. Repeated
// calls without intervening writes yield the same state.
func (service *ModeService) Refresh(ctx context.Context, session *Session) (ModeState, error) {
	state, err := service.Resolve(ctx, session.UserID)
	if err != nil {
		return ModeState{}, err
	}
	session.apply(state)
	return state, nil
}

// ChoosePregnancy only marks the session; nothing is persisted until the
// user saves pregnancy details.
func (service *ModeService) ChoosePregnancy(ctx context.Context, session *Session) (ModeState, error) {
	current, err := service.Current(ctx, session)
	if err != nil {
		return ModeState{}, err
	}
	switch current.Mode {
	case models.ModePregnancy:
		return current, nil
	case models.ModeOnboarding:
		state := ModeState{Mode: models.ModePregnancy}
		session.apply(state)
		return state, nil
	default:
		return ModeState{}, ErrInvalidModeTransition
	}
}

// ChoosePostpartum records today as the delivery date, but only from
// onboarding. An existing delivery date is never replaced by this choice.
func (service *ModeService) ChoosePostpartum(ctx context.Context, session *Session) (ModeState, error) {
	current, err := service.Current(ctx, session)
	if err != nil {
		return ModeState{}, err
	}
	switch current.Mode {
	case models.ModePostpartum:
		return current, nil
	case models.ModeOnboarding:
		return service.SwitchToPostpartum(ctx, session, DateAtLocation(service.now(), service.location))
	default:
		return ModeState{}, ErrInvalidModeTransition
	}
}

// Choose dispatches an onboarding choice string.
func (service *ModeService) Choose(ctx context.Context, session *Session, choice string) (ModeState, error) {
	switch models.UserMode(choice) {
	case models.ModePregnancy:
		return service.ChoosePregnancy(ctx, session)
	case models.ModePostpartum:
		return service.ChoosePostpartum(ctx, session)
	default:
		return ModeState{}, ErrInvalidModeChoice
	}
}

// SwitchToPostpartum persists deliveryDate and only then moves the session
// to postpartum. On a store error the session keeps its previous mode.
func (service *ModeService) SwitchToPostpartum(ctx context.Context, session *Session, deliveryDate time.Time) (ModeState, error) {
	day := DateAtLocation(deliveryDate, service.location)
	stored := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if err := service.records.SetDeliveryDate(ctx, session.UserID, &stored); err != nil {
		service.log.Error("switch to postpartum failed", "user_id", session.UserID, "error", err.Error())
		return ModeState{}, fmt.Errorf("%w: %v", ErrModeTransitionFailed, err)
	}

	state := ModeState{Mode: models.ModePostpartum, DeliveryDate: &stored}
	session.apply(state)
	service.log.Info("mode changed", "user_id", session.UserID, "mode", string(state.Mode))
	return state, nil
}

// SwitchToPregnancy clears the delivery date. The record must exist: a
// user who never saved pregnancy data is onboarding, not postpartum.
func (service *ModeService) SwitchToPregnancy(ctx context.Context, session *Session) (ModeState, error) {
	if _, err := service.records.FindByUser(ctx, session.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ModeState{}, ErrPregnancyRecordMissing
		}
		return ModeState{}, fmt.Errorf("%w: %v", ErrModeTransitionFailed, err)
	}
	if err := service.records.SetDeliveryDate(ctx, session.UserID, nil); err != nil {
		service.log.Error("switch to pregnancy failed", "user_id", session.UserID, "error", err.Error())
		return ModeState{}, fmt.Errorf("%w: %v", ErrModeTransitionFailed, err)
	}

	state := ModeState{Mode: models.ModePregnancy}
	session.apply(state)
	service.log.Info("mode changed", "user_id", session.UserID, "mode", string(state.Mode))
	return state, nil
}

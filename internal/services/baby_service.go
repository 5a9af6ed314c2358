package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPostpartumRequired = errors.New("baby tracking is available after delivery")
	ErrBabyNotFound       = errors.New("baby not found")
	ErrBabySaveFailed     = errors.New("baby save failed")
	ErrInvalidBabyLog     = errors.New("invalid baby log")
)

type BabyRepository interface {
	Create(ctx context.Context, baby *models.Baby) error
	ListByUser(ctx context.Context, userID uint) ([]models.Baby, error)
	FindForUser(ctx context.Context, userID uint, babyID uint) (models.Baby, error)
	CreateLog(ctx context.Context, entry *models.BabyLog) error
	ListLogs(ctx context.Context, userID uint, babyID uint, limit int) ([]models.BabyLog, error)
}

type ModeReader interface {
	Current(ctx context.Context, session *Session) (ModeState, error)
}

type BabyInput struct {
	Name      string
	Sex       string
	BirthDate time.Time
}

type BabyLogInput struct {
	Kind            string
	DurationMinutes int
	AmountML        int
	Notes           string
	LoggedAt        time.Time
}

type BabyView struct {
	models.Baby
	AgeWeeks int `json:"age_weeks"`
}

type BabyService struct {
	babies BabyRepository
	modes  ModeReader
	now    func() time.Time
}

func NewBabyService(babies BabyRepository, modes ModeReader) *BabyService {
	return &BabyService{babies: babies, modes: modes, now: time.Now}
}

func (service *BabyService) requirePostpartum(ctx context.Context, session *Session) (ModeState, error) {
	state, err := service.modes.Current(ctx, session)
	if err != nil {
		return ModeState{}, err
	}
	if state.Mode != models.ModePostpartum {
		return ModeState{}, ErrPostpartumRequired
	}
	return state, nil
}

// Add registers a baby. A missing birth date defaults to the delivery date.
func (service *BabyService) Add(ctx context.Context, session *Session, input BabyInput) (BabyView, error) {
	state, err := service.requirePostpartum(ctx, session)
	if err != nil {
		return BabyView{}, err
	}

	birthDate := input.BirthDate
	if birthDate.IsZero() && state.DeliveryDate != nil {
		birthDate = *state.DeliveryDate
	}
	if birthDate.After(service.now()) {
		return BabyView{}, fmt.Errorf("%w: birth date is in the future", models.ErrInvalidRecord)
	}
	switch sex := strings.ToLower(strings.TrimSpace(input.Sex)); sex {
	case "", "female", "male":
	default:
		return BabyView{}, fmt.Errorf("%w: sex %q is not supported", models.ErrInvalidRecord, input.Sex)
	}

	baby, err := models.NewBaby(session.UserID, input.Name, input.Sex, birthDate)
	if err != nil {
		return BabyView{}, err
	}
	if err := service.babies.Create(ctx, &baby); err != nil {
		return BabyView{}, fmt.Errorf("%w: %v", ErrBabySaveFailed, err)
	}
	return service.view(baby), nil
}

func (service *BabyService) List(ctx context.Context, session *Session) ([]BabyView, error) {
	if _, err := service.requirePostpartum(ctx, session); err != nil {
		return nil, err
	}
	return service.ListForUser(ctx, session.UserID)
}

// ListForUser skips the mode check; used to build chat context.
func (service *BabyService) ListForUser(ctx context.Context, userID uint) ([]BabyView, error) {
	babies, err := service.babies.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]BabyView, 0, len(babies))
	for _, baby := range babies {
		views = append(views, service.view(baby))
	}
	return views, nil
}

func (service *BabyService) AddLog(ctx context.Context, session *Session, babyID uint, input BabyLogInput) (models.BabyLog, error) {
	if _, err := service.requirePostpartum(ctx, session); err != nil {
		return models.BabyLog{}, err
	}
	if _, err := service.findBaby(ctx, session.UserID, babyID); err != nil {
		return models.BabyLog{}, err
	}

	kind := strings.ToLower(strings.TrimSpace(input.Kind))
	if !models.IsValidBabyLogKind(kind) {
		return models.BabyLog{}, fmt.Errorf("%w: kind %q is not supported", ErrInvalidBabyLog, input.Kind)
	}
	if input.DurationMinutes < 0 || input.DurationMinutes > 24*60 {
		return models.BabyLog{}, fmt.Errorf("%w: duration out of range", ErrInvalidBabyLog)
	}
	if input.AmountML < 0 || input.AmountML > 1000 {
		return models.BabyLog{}, fmt.Errorf("%w: amount out of range", ErrInvalidBabyLog)
	}
	loggedAt := input.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = service.now()
	}

	entry := models.BabyLog{
		BabyID:          babyID,
		UserID:          session.UserID,
		Kind:            kind,
		DurationMinutes: input.DurationMinutes,
		AmountML:        input.AmountML,
		Notes:           strings.TrimSpace(input.Notes),
		LoggedAt:        loggedAt.UTC(),
	}
	if err := service.babies.CreateLog(ctx, &entry); err != nil {
		return models.BabyLog{}, fmt.Errorf("%w: %v", ErrBabySaveFailed, err)
	}
	return entry, nil
}

func (service *BabyService) Logs(ctx context.Context, session *Session, babyID uint, limit int) ([]models.BabyLog, error) {
	if _, err := service.requirePostpartum(ctx, session); err != nil {
		return nil, err
	}
	if _, err := service.findBaby(ctx, session.UserID, babyID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return service.babies.ListLogs(ctx, session.UserID, babyID, limit)
}

func (service *BabyService) findBaby(ctx context.Context, userID uint, babyID uint) (models.Baby, error) {
	baby, err := service.babies.FindForUser(ctx, userID, babyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Baby{}, ErrBabyNotFound
	}
	return baby, err
}

func (service *BabyService) view(baby models.Baby) BabyView {
	return BabyView{Baby: baby, AgeWeeks: AgeInWeeks(baby.BirthDate, service.now())}
}

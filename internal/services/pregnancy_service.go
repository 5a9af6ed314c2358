package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidPregnancyInput = errors.New("invalid pregnancy input")
	ErrPregnancySaveFailed   = errors.New("pregnancy save failed")
)

var validBloodTypes = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {}, "AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

type PregnancyRepository interface {
	FindByUser(ctx context.Context, userID uint) (models.PregnancyRecord, error)
	UpsertDetails(ctx context.Context, record *models.PregnancyRecord) error
}

// PregnancyInput carries raw request values; dates are YYYY-MM-DD.
type PregnancyInput struct {
	LastMenstrualPeriod string
	DueDate             string
	WeeksPregnant       *int
	IsHighRisk          bool
	BabyCount           int
	BloodType           string
	MedicalConditions   string
	Medications         string
	Allergies           string
}

type PregnancyView struct {
	Record      *models.PregnancyRecord `json:"record"`
	Mode        models.UserMode         `json:"mode"`
	CurrentWeek int                     `json:"current_week"`
	DueDate     string                  `json:"due_date,omitempty"`
}

type PregnancyService struct {
	records  PregnancyRepository
	modes    *ModeService
	log      *logger.Logger
	location *time.Location
	now      func() time.Time
}

func NewPregnancyService(records PregnancyRepository, modes *ModeService, log *logger.Logger, location *time.Location) *PregnancyService {
	if log == nil {
		log = logger.Nop()
	}
	if location == nil {
		location = time.UTC
	}
	return &PregnancyService{records: records, modes: modes, log: log, location: location, now: time.Now}
}

func (service *PregnancyService) Get(ctx context.Context, userID uint) (PregnancyView, error) {
	record, err := service.records.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PregnancyView{Mode: models.ModeOnboarding}, nil
	}
	if err != nil {
		return PregnancyView{}, err
	}
	return service.view(&record), nil
}

// Save validates input and upserts the details. The delivery date is never
// touched here; use the mode transitions for that.
func (service *PregnancyService) Save(ctx context.Context, session *Session, input PregnancyInput) (PregnancyView, error) {
	record, err := service.parse(session.UserID, input)
	if err != nil {
		return PregnancyView{}, err
	}
	if err := service.records.UpsertDetails(ctx, &record); err != nil {
		service.log.Error("save pregnancy details failed", "user_id", session.UserID, "error", err.Error())
		return PregnancyView{}, fmt.Errorf("%w: %v", ErrPregnancySaveFailed, err)
	}

	if service.modes != nil {
		if _, err := service.modes.Refresh(ctx, session); err != nil {
			service.log.Warn("refresh mode after pregnancy save failed", "user_id", session.UserID, "error", err.Error())
		}
	}
	return service.Get(ctx, session.UserID)
}

func (service *PregnancyService) parse(userID uint, input PregnancyInput) (models.PregnancyRecord, error) {
	today := DateAtLocation(service.now(), service.location)

	lmp, err := ParseOptionalISODate(input.LastMenstrualPeriod, time.UTC)
	if err != nil {
		return models.PregnancyRecord{}, fmt.Errorf("%w: last_menstrual_period must be YYYY-MM-DD", ErrInvalidPregnancyInput)
	}
	if lmp != nil && lmp.After(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)) {
		return models.PregnancyRecord{}, fmt.Errorf("%w: last_menstrual_period is in the future", ErrInvalidPregnancyInput)
	}
	due, err := ParseOptionalISODate(input.DueDate, time.UTC)
	if err != nil {
		return models.PregnancyRecord{}, fmt.Errorf("%w: due_date must be YYYY-MM-DD", ErrInvalidPregnancyInput)
	}
	if due == nil && lmp != nil {
		computed := DueDateFromLMP(*lmp)
		due = &computed
	}
	if input.WeeksPregnant != nil && (*input.WeeksPregnant < 0 || *input.WeeksPregnant > MaxGestationalWeek) {
		return models.PregnancyRecord{}, fmt.Errorf("%w: weeks_pregnant must be between 0 and %d", ErrInvalidPregnancyInput, MaxGestationalWeek)
	}

	babyCount := input.BabyCount
	if babyCount == 0 {
		babyCount = 1
	}
	if babyCount < 1 || babyCount > 8 {
		return models.PregnancyRecord{}, fmt.Errorf("%w: baby_count must be between 1 and 8", ErrInvalidPregnancyInput)
	}

	bloodType := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(input.BloodType), " ", ""))
	if bloodType != "" {
		if _, ok := validBloodTypes[bloodType]; !ok {
			return models.PregnancyRecord{}, fmt.Errorf("%w: blood_type %q is not recognised", ErrInvalidPregnancyInput, input.BloodType)
		}
	}

	return models.PregnancyRecord{
		UserID:              userID,
		LastMenstrualPeriod: lmp,
		DueDate:             due,
		WeeksPregnant:       input.WeeksPregnant,
		IsHighRisk:          input.IsHighRisk,
		BabyCount:           babyCount,
		BloodType:           bloodType,
		MedicalConditions:   strings.TrimSpace(input.MedicalConditions),
		Medications:         strings.TrimSpace(input.Medications),
		Allergies:           strings.TrimSpace(input.Allergies),
	}, nil
}

func (service *PregnancyService) view(record *models.PregnancyRecord) PregnancyView {
	view := PregnancyView{
		Record: record,
		Mode:   ResolveMode(record).Mode,
	}
	if view.Mode == models.ModePregnancy {
		view.CurrentWeek = ResolveWeek(record, service.now())
	}
	view.DueDate = FormatOptionalDate(ResolveDueDate(record))
	return view
}

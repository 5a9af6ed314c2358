package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
)

type stubPregnancyStore struct {
	*stubModeRepo
	upsertErr error
}

func (stub *stubPregnancyStore) UpsertDetails(_ context.Context, record *models.PregnancyRecord) error {
	if stub.upsertErr != nil {
		return stub.upsertErr
	}
	saved := *record
	if stub.record != nil {
		saved.DeliveryDate = stub.record.DeliveryDate
	}
	stub.record = &saved
	return nil
}

func TestPregnancySaveMovesOnboardingToPregnancy(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	store := &stubPregnancyStore{stubModeRepo: &stubModeRepo{}}
	modes := newTestModeService(store.stubModeRepo, now)
	service := NewPregnancyService(store, modes, nil, time.UTC)
	service.now = func() time.Time { return now }
	session := NewSessionStore(0).Open(1, models.RoleMother)

	view, err := service.Save(context.Background(), session, PregnancyInput{
		LastMenstrualPeriod: "2025-03-09",
		BloodType:           "o +",
	})
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if view.Mode != models.ModePregnancy || view.CurrentWeek != 12 || view.DueDate != "2025-12-14" {
		t.Fatalf("Save() view = %+v", view)
	}
	if view.Record.BloodType != "O+" || view.Record.BabyCount != 1 {
		t.Fatalf("record = %+v", view.Record)
	}
	state, _ := session.State()
	if state.Mode != models.ModePregnancy {
		t.Fatalf("session mode = %q, want pregnancy", state.Mode)
	}
}

func TestPregnancySaveValidation(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	store := &stubPregnancyStore{stubModeRepo: &stubModeRepo{}}
	service := NewPregnancyService(store, nil, nil, time.UTC)
	service.now = func() time.Time { return now }
	session := NewSessionStore(0).Open(1, models.RoleMother)
	tooMany := 50

	inputs := []PregnancyInput{
		{LastMenstrualPeriod: "03/09/2025"},
		{LastMenstrualPeriod: "2025-07-01"},
		{DueDate: "tomorrow"},
		{WeeksPregnant: &tooMany},
		{BabyCount: 12},
		{BloodType: "C+"},
	}
	for _, input := range inputs {
		if _, err := service.Save(context.Background(), session, input); !errors.Is(err, ErrInvalidPregnancyInput) {
			t.Fatalf("Save(%+v) error = %v, want ErrInvalidPregnancyInput", input, err)
		}
	}
	if store.record != nil {
		t.Fatal("invalid input must not be stored")
	}

	store.upsertErr = errors.New("db")
	if _, err := service.Save(context.Background(), session, PregnancyInput{}); !errors.Is(err, ErrPregnancySaveFailed) {
		t.Fatalf("expected ErrPregnancySaveFailed, got %v", err)
	}
}

func TestPregnancyGetWithoutRecord(t *testing.T) {
	service := NewPregnancyService(&stubPregnancyStore{stubModeRepo: &stubModeRepo{}}, nil, nil, time.UTC)
	view, err := service.Get(context.Background(), 1)
	if err != nil || view.Mode != models.ModeOnboarding || view.Record != nil {
		t.Fatalf("Get() = (%+v, %v), want onboarding without record", view, err)
	}
}

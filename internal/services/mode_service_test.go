package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

type stubModeRepo struct {
	record   *models.PregnancyRecord
	findErr  error
	setErr   error
	setCalls int
}

func (stub *stubModeRepo) FindByUser(_ context.Context, userID uint) (models.PregnancyRecord, error) {
	if stub.findErr != nil {
		return models.PregnancyRecord{}, stub.findErr
	}
	if stub.record == nil {
		return models.PregnancyRecord{}, gorm.ErrRecordNotFound
	}
	return *stub.record, nil
}

func (stub *stubModeRepo) SetDeliveryDate(_ context.Context, userID uint, deliveryDate *time.Time) error {
	stub.setCalls++
	if stub.setErr != nil {
		return stub.setErr
	}
	if stub.record == nil {
		stub.record = &models.PregnancyRecord{UserID: userID, BabyCount: 1}
	}
	if deliveryDate == nil {
		stub.record.DeliveryDate = nil
		return nil
	}
	date := *deliveryDate
	stub.record.DeliveryDate = &date
	return nil
}

func newTestModeService(repo *stubModeRepo, now time.Time) *ModeService {
	service := NewModeService(repo, nil, time.UTC)
	service.now = func() time.Time { return now }
	return service
}

func TestResolveMode(t *testing.T) {
	delivered := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	if got := ResolveMode(nil); got.Mode != models.ModeOnboarding {
		t.Fatalf("ResolveMode(nil) = %q, want onboarding", got.Mode)
	}
	if got := ResolveMode(&models.PregnancyRecord{}); got.Mode != models.ModePregnancy || got.DeliveryDate != nil {
		t.Fatalf("ResolveMode(no delivery) = %+v, want pregnancy", got)
	}
	got := ResolveMode(&models.PregnancyRecord{DeliveryDate: &delivered})
	if got.Mode != models.ModePostpartum || got.DeliveryDate == nil || !got.DeliveryDate.Equal(delivered) {
		t.Fatalf("ResolveMode(delivered) = %+v, want postpartum on %s", got, delivered)
	}
}

func TestModeScenarioOnboardingToPregnancyToPostpartum(t *testing.T) {
	ctx := context.Background()
	repo := &stubModeRepo{}
	service := newTestModeService(repo, time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC))
	session := NewSessionStore(0).Open(1, models.RoleMother)

	state, err := service.Current(ctx, session)
	if err != nil || state.Mode != models.ModeOnboarding {
		t.Fatalf("Current() = (%+v, %v), want onboarding", state, err)
	}

	state, err = service.Choose(ctx, session, "pregnancy")
	if err != nil || state.Mode != models.ModePregnancy {
		t.Fatalf("Choose(pregnancy) = (%+v, %v), want pregnancy", state, err)
	}
	if repo.setCalls != 0 {
		t.Fatalf("choosing pregnancy must not persist, got %d writes", repo.setCalls)
	}

	deliveryDate, err := ParseISODate("2025-03-01", time.UTC)
	if err != nil {
		t.Fatalf("ParseISODate() unexpected error: %v", err)
	}
	state, err = service.SwitchToPostpartum(ctx, session, deliveryDate)
	if err != nil {
		t.Fatalf("SwitchToPostpartum() unexpected error: %v", err)
	}
	if state.Mode != models.ModePostpartum || FormatOptionalDate(state.DeliveryDate) != "2025-03-01" {
		t.Fatalf("SwitchToPostpartum() = %+v, want postpartum on 2025-03-01", state)
	}

	resolved, err := service.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if resolved.Mode != models.ModePostpartum || FormatOptionalDate(resolved.DeliveryDate) != "2025-03-01" {
		t.Fatalf("Resolve() after switch = %+v, want postpartum on 2025-03-01", resolved)
	}

	state, err = service.SwitchToPregnancy(ctx, session)
	if err != nil || state.Mode != models.ModePregnancy {
		t.Fatalf("SwitchToPregnancy() = (%+v, %v), want pregnancy", state, err)
	}
	if repo.record.DeliveryDate != nil {
		t.Fatal("expected delivery date to be cleared")
	}
}

func TestSwitchToPostpartumFailureKeepsSessionMode(t *testing.T) {
	ctx := context.Background()
	repo := &stubModeRepo{record: &models.PregnancyRecord{UserID: 1}}
	service := newTestModeService(repo, time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC))
	session := NewSessionStore(0).Open(1, models.RoleMother)
	if _, err := service.Refresh(ctx, session); err != nil {
		t.Fatalf("Refresh() unexpected error: %v", err)
	}

	repo.setErr = errors.New("disk full")
	_, err := service.SwitchToPostpartum(ctx, session, time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrModeTransitionFailed) {
		t.Fatalf("expected ErrModeTransitionFailed, got %v", err)
	}
	state, _ := session.State()
	if state.Mode != models.ModePregnancy || state.DeliveryDate != nil {
		t.Fatalf("session state after failed switch = %+v, want pregnancy", state)
	}
}

func TestSwitchToPostpartumAcceptsAnyValidDate(t *testing.T) {
	now := time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)
	for _, delivery := range []time.Time{
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
	} {
		repo := &stubModeRepo{record: &models.PregnancyRecord{UserID: 1}}
		service := newTestModeService(repo, now)
		session := NewSessionStore(0).Open(1, models.RoleMother)

		if _, err := service.SwitchToPostpartum(context.Background(), session, delivery); err != nil {
			t.Fatalf("SwitchToPostpartum(%s) unexpected error: %v", delivery.Format(DateLayout), err)
		}
		state, err := service.Refresh(context.Background(), session)
		if err != nil {
			t.Fatalf("Refresh() unexpected error: %v", err)
		}
		if state.Mode != models.ModePostpartum || !state.DeliveryDate.Equal(delivery) {
			t.Fatalf("resolved %+v, want postpartum on %s", state, delivery.Format(DateLayout))
		}
	}
}

func TestChoosePostpartumUsesToday(t *testing.T) {
	repo := &stubModeRepo{}
	service := newTestModeService(repo, time.Date(2025, time.June, 1, 23, 30, 0, 0, time.UTC))
	session := NewSessionStore(0).Open(1, models.RoleMother)

	state, err := service.Choose(context.Background(), session, "postpartum")
	if err != nil {
		t.Fatalf("Choose(postpartum) unexpected error: %v", err)
	}
	if FormatOptionalDate(state.DeliveryDate) != "2025-06-01" {
		t.Fatalf("delivery date = %s, want 2025-06-01", FormatOptionalDate(state.DeliveryDate))
	}
}

func TestModeTransitionGuards(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

	service := newTestModeService(&stubModeRepo{}, now)
	session := NewSessionStore(0).Open(1, models.RoleMother)
	if _, err := service.Choose(ctx, session, "twins"); !errors.Is(err, ErrInvalidModeChoice) {
		t.Fatalf("expected ErrInvalidModeChoice, got %v", err)
	}
	if _, err := service.SwitchToPregnancy(ctx, session); !errors.Is(err, ErrPregnancyRecordMissing) {
		t.Fatalf("expected ErrPregnancyRecordMissing, got %v", err)
	}

	delivered := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	postpartum := newTestModeService(&stubModeRepo{record: &models.PregnancyRecord{UserID: 1, DeliveryDate: &delivered}}, now)
	session = NewSessionStore(0).Open(1, models.RoleMother)
	if _, err := postpartum.ChoosePregnancy(ctx, session); !errors.Is(err, ErrInvalidModeTransition) {
		t.Fatalf("expected ErrInvalidModeTransition, got %v", err)
	}

	repo := &stubModeRepo{record: &models.PregnancyRecord{UserID: 1, DeliveryDate: &delivered}}
	postpartum = newTestModeService(repo, now)
	session = NewSessionStore(0).Open(1, models.RoleMother)
	state, err := postpartum.Choose(ctx, session, "postpartum")
	if err != nil {
		t.Fatalf("Choose(postpartum) while postpartum unexpected error: %v", err)
	}
	if !state.DeliveryDate.Equal(delivered) || repo.setCalls != 0 {
		t.Fatalf("repeated postpartum choice changed the delivery date: %+v, writes %d", state, repo.setCalls)
	}

	lmp := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	repo = &stubModeRepo{record: &models.PregnancyRecord{UserID: 1, LastMenstrualPeriod: &lmp}}
	pregnant := newTestModeService(repo, now)
	session = NewSessionStore(0).Open(1, models.RoleMother)
	if _, err := pregnant.Choose(ctx, session, "postpartum"); !errors.Is(err, ErrInvalidModeTransition) {
		t.Fatalf("expected ErrInvalidModeTransition from pregnancy, got %v", err)
	}
	if repo.setCalls != 0 {
		t.Fatal("postpartum choice from pregnancy must not write a delivery date")
	}
}

func TestResolveWrapsStoreErrors(t *testing.T) {
	service := newTestModeService(&stubModeRepo{findErr: errors.New("db down")}, time.Now())
	if _, err := service.Resolve(context.Background(), 1); !errors.Is(err, ErrModeResolveFailed) {
		t.Fatalf("expected ErrModeResolveFailed, got %v", err)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	delivered := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	service := newTestModeService(&stubModeRepo{record: &models.PregnancyRecord{UserID: 1, DeliveryDate: &delivered}}, time.Now())
	session := NewSessionStore(0).Open(1, models.RoleMother)

	first, err := service.Refresh(context.Background(), session)
	if err != nil {
		t.Fatalf("Refresh() unexpected error: %v", err)
	}
	second, err := service.Refresh(context.Background(), session)
	if err != nil {
		t.Fatalf("Refresh() unexpected error: %v", err)
	}
	if first.Mode != second.Mode || !first.DeliveryDate.Equal(*second.DeliveryDate) {
		t.Fatalf("Refresh() not idempotent: %+v vs %+v", first, second)
	}
}

package services

import (
	"testing"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
)

func TestCurrentWeekMatchesElapsedWholeWeeks(t *testing.T) {
	lmp := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for days := 0; days <= 400; days++ {
		now := lmp.AddDate(0, 0, days)
		want := days / 7
		if want > MaxGestationalWeek {
			want = MaxGestationalWeek
		}
		if got := CurrentWeek(lmp, now); got != want {
			t.Fatalf("CurrentWeek(lmp, lmp+%dd) = %d, want %d", days, got, want)
		}
	}
}

func TestCurrentWeekClampsAndToleratesFutureLMP(t *testing.T) {
	lmp := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	if got := CurrentWeek(lmp, lmp.AddDate(0, 0, 43*7)); got != 42 {
		t.Fatalf("expected clamp to 42, got %d", got)
	}
	if got := CurrentWeek(lmp, lmp.AddDate(0, 0, -15)); got != 2 {
		t.Fatalf("expected absolute distance of 2 weeks, got %d", got)
	}
	if got := CurrentWeek(lmp, lmp.Add(20*time.Hour)); got != 0 {
		t.Fatalf("expected week 0 on the first day, got %d", got)
	}
}

func TestDueDateFromLMP(t *testing.T) {
	lmp := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC)
	if got := DueDateFromLMP(lmp); !got.Equal(want) {
		t.Fatalf("DueDateFromLMP() = %s, want %s", got, want)
	}
}

func TestResolveWeekFallbackOrder(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	lmp := now.AddDate(0, 0, -10*7)
	override := 20
	dueIn70 := now.AddDate(0, 0, 70)
	dueIn71 := now.AddDate(0, 0, 71)

	tests := []struct {
		name   string
		record *models.PregnancyRecord
		want   int
	}{
		{name: "nil record", record: nil, want: 0},
		{name: "empty record", record: &models.PregnancyRecord{}, want: 0},
		{name: "override wins over lmp", record: &models.PregnancyRecord{LastMenstrualPeriod: &lmp, WeeksPregnant: &override}, want: 20},
		{name: "override wins over due date", record: &models.PregnancyRecord{WeeksPregnant: &override, DueDate: &dueIn70}, want: 20},
		{name: "lmp wins over due date", record: &models.PregnancyRecord{LastMenstrualPeriod: &lmp, DueDate: &dueIn70}, want: 10},
		{name: "due date in whole weeks", record: &models.PregnancyRecord{DueDate: &dueIn70}, want: 30},
		{name: "due date rounds weeks left up", record: &models.PregnancyRecord{DueDate: &dueIn71}, want: 29},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ResolveWeek(test.record, now); got != test.want {
				t.Fatalf("ResolveWeek() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestResolveDueDatePrefersStoredValue(t *testing.T) {
	lmp := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	stored := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

	got := ResolveDueDate(&models.PregnancyRecord{LastMenstrualPeriod: &lmp, DueDate: &stored})
	if got == nil || !got.Equal(stored) {
		t.Fatalf("expected stored due date, got %v", got)
	}
	got = ResolveDueDate(&models.PregnancyRecord{LastMenstrualPeriod: &lmp})
	if got == nil || !got.Equal(DueDateFromLMP(lmp)) {
		t.Fatalf("expected lmp-derived due date, got %v", got)
	}
	if ResolveDueDate(&models.PregnancyRecord{}) != nil {
		t.Fatal("expected nil due date for empty record")
	}
}

func TestAgeInWeeks(t *testing.T) {
	birth := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	if got := AgeInWeeks(birth, birth.AddDate(0, 0, 23)); got != 3 {
		t.Fatalf("AgeInWeeks() = %d, want 3", got)
	}
	if got := AgeInWeeks(birth, birth.AddDate(0, 0, -1)); got != 0 {
		t.Fatalf("AgeInWeeks() for future birth = %d, want 0", got)
	}
}

package services

import (
	"math"
	"time"

	"github.com/terraincognita07/mamacare/internal/models"
)

const (
	MaxGestationalWeek = 42
	FullTermWeeks      = 40
	FullTermDays       = 280
)

// CurrentWeek returns the whole weeks elapsed since lmp, clamped to
// [0, MaxGestationalWeek]. A future lmp counts by absolute distance.
func CurrentWeek(lmp time.Time, now time.Time) int {
	elapsed := now.Sub(lmp)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	weeks := int(elapsed.Hours() / 24 / 7)
	return clampWeek(weeks)
}

func DueDateFromLMP(lmp time.Time) time.Time {
	return lmp.AddDate(0, 0, FullTermDays)
}

// ResolveWeek derives the gestational week from whatever the record holds:
// the explicit weeks override first, then LMP, then the due date.
func ResolveWeek(record *models.PregnancyRecord, now time.Time) int {
	if record == nil {
		return 0
	}
	if record.WeeksPregnant != nil {
		return clampWeek(*record.WeeksPregnant)
	}
	if record.LastMenstrualPeriod != nil && !record.LastMenstrualPeriod.IsZero() {
		return CurrentWeek(*record.LastMenstrualPeriod, now)
	}
	if record.DueDate != nil && !record.DueDate.IsZero() {
		daysLeft := math.Ceil(record.DueDate.Sub(now).Hours() / 24)
		weeksLeft := int(math.Ceil(daysLeft / 7))
		return clampWeek(FullTermWeeks - weeksLeft)
	}
	return 0
}

// ResolveDueDate prefers the stored due date and falls back to LMP + 280d.
func ResolveDueDate(record *models.PregnancyRecord) *time.Time {
	if record == nil {
		return nil
	}
	if record.DueDate != nil && !record.DueDate.IsZero() {
		due := *record.DueDate
		return &due
	}
	if record.LastMenstrualPeriod != nil && !record.LastMenstrualPeriod.IsZero() {
		due := DueDateFromLMP(*record.LastMenstrualPeriod)
		return &due
	}
	return nil
}

// AgeInWeeks is used for baby ages; a birth date in the future is week 0.
func AgeInWeeks(birth time.Time, now time.Time) int {
	if now.Before(birth) {
		return 0
	}
	return int(now.Sub(birth).Hours() / 24 / 7)
}

func clampWeek(week int) int {
	if week < 0 {
		return 0
	}
	if week > MaxGestationalWeek {
		return MaxGestationalWeek
	}
	return week
}

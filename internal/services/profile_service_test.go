package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

type stubProfileRepo struct {
	profile   *models.Profile
	upsertErr error
}

func (stub *stubProfileRepo) FindByUser(context.Context, uint) (models.Profile, error) {
	if stub.profile == nil {
		return models.Profile{}, gorm.ErrRecordNotFound
	}
	return *stub.profile, nil
}

func (stub *stubProfileRepo) Upsert(_ context.Context, profile *models.Profile) error {
	if stub.upsertErr != nil {
		return stub.upsertErr
	}
	saved := *profile
	stub.profile = &saved
	return nil
}

func TestProfileGetDefaults(t *testing.T) {
	service := NewProfileService(&stubProfileRepo{}, nil, "234")
	profile, err := service.Get(context.Background(), 5)
	if err != nil || profile.UserID != 5 || profile.Language != "en" {
		t.Fatalf("Get() = (%+v, %v)", profile, err)
	}
}

func TestProfileUpdate(t *testing.T) {
	repo := &stubProfileRepo{}
	service := NewProfileService(repo, lowerLanguages{}, "234")

	profile, err := service.Update(context.Background(), 1, ProfileInput{DisplayName: " Amaka ", Phone: "08012345678", Language: "FR"})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if profile.DisplayName != "Amaka" || profile.Phone != "+2348012345678" || profile.Language != "fr" {
		t.Fatalf("Update() = %+v", profile)
	}

	if _, err := service.Update(context.Background(), 1, ProfileInput{DisplayName: strings.Repeat("a", 81)}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile for long name, got %v", err)
	}
	if _, err := service.Update(context.Background(), 1, ProfileInput{Phone: "call me"}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile for phone, got %v", err)
	}

	repo.upsertErr = errors.New("db")
	if _, err := service.Update(context.Background(), 1, ProfileInput{}); !errors.Is(err, ErrProfileSaveFailed) {
		t.Fatalf("expected ErrProfileSaveFailed, got %v", err)
	}
}

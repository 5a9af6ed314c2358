package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/sms"
	"gorm.io/gorm"
)

var (
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrProfileSaveFailed = errors.New("profile save failed")
)

const maxDisplayNameLength = 80

type ProfileRepository interface {
	FindByUser(ctx context.Context, userID uint) (models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

type LanguageNormalizer interface {
	NormalizeLanguage(raw string) string
}

type ProfileInput struct {
	DisplayName string
	Phone       string
	Language    string
}

type ProfileService struct {
	profiles    ProfileRepository
	languages   LanguageNormalizer
	countryCode string
}

func NewProfileService(profiles ProfileRepository, languages LanguageNormalizer, countryCode string) *ProfileService {
	return &ProfileService{profiles: profiles, languages: languages, countryCode: countryCode}
}

// Get returns an empty profile for users who never saved one.
func (service *ProfileService) Get(ctx context.Context, userID uint) (models.Profile, error) {
	profile, err := service.profiles.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Profile{UserID: userID, Language: service.normalizeLanguage("")}, nil
	}
	return profile, err
}

func (service *ProfileService) Update(ctx context.Context, userID uint, input ProfileInput) (models.Profile, error) {
	name := strings.TrimSpace(input.DisplayName)
	if len([]rune(name)) > maxDisplayNameLength {
		return models.Profile{}, fmt.Errorf("%w: display name is too long", ErrInvalidProfile)
	}
	phone := ""
	if strings.TrimSpace(input.Phone) != "" {
		phone = sms.NormalizePhone(input.Phone, service.countryCode)
		if phone == "" {
			return models.Profile{}, fmt.Errorf("%w: phone has no digits", ErrInvalidProfile)
		}
	}

	profile := models.Profile{
		UserID:      userID,
		DisplayName: name,
		Phone:       phone,
		Language:    service.normalizeLanguage(input.Language),
	}
	if err := service.profiles.Upsert(ctx, &profile); err != nil {
		return models.Profile{}, fmt.Errorf("%w: %v", ErrProfileSaveFailed, err)
	}
	return profile, nil
}

func (service *ProfileService) normalizeLanguage(raw string) string {
	if service.languages == nil {
		if strings.TrimSpace(raw) == "" {
			return "en"
		}
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return service.languages.NormalizeLanguage(raw)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/security"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrRegistrationFailed     = errors.New("registration failed")
	ErrAuthUserNotFound       = errors.New("user not found")
	ErrPasswordUpdateFailed   = errors.New("password update failed")
)

// dummyPasswordHash keeps unknown-email logins as slow as wrong-password
// logins.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, _ := security.HashPassword("mamacare-dummy-password")
	return hash
})

type AuthUserRepository interface {
	ExistsByNormalizedEmail(ctx context.Context, email string) (bool, error)
	FindByNormalizedEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID uint) (models.User, error)
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
}

type RegisterInput struct {
	Email       string
	Password    string
	Role        string
	DisplayName string
	Phone       string
	Language    string
}

type AuthService struct {
	users     AuthUserRepository
	languages LanguageNormalizer
}

func NewAuthService(users AuthUserRepository, languages LanguageNormalizer) *AuthService {
	return &AuthService{users: users, languages: languages}
}

func (service *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(input.Email, input.Password)
	if err != nil {
		return models.User{}, err
	}
	if err := security.ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}
	role, err := NormalizeRole(input.Role)
	if err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	if exists {
		return models.User{}, ErrEmailAlreadyRegistered
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	language := strings.TrimSpace(input.Language)
	if service.languages != nil {
		language = service.languages.NormalizeLanguage(language)
	}
	user := models.User{Email: email, PasswordHash: hash, Role: role}
	profile := models.Profile{
		DisplayName: strings.TrimSpace(input.DisplayName),
		Phone:       strings.TrimSpace(input.Phone),
		Language:    language,
	}
	if err := service.users.CreateWithProfile(ctx, &user, &profile); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	return user, nil
}

// Authenticate returns ErrAuthCredentialsInvalid for both unknown emails
// and wrong passwords.
func (service *AuthService) Authenticate(ctx context.Context, emailRaw string, passwordRaw string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		security.PasswordMatches(dummyPasswordHash(), password)
		return models.User{}, ErrAuthCredentialsInvalid
	}
	if err != nil {
		return models.User{}, err
	}
	if !security.PasswordMatches(user.PasswordHash, password) {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	return user, nil
}

func (service *AuthService) FindByID(ctx context.Context, userID uint) (models.User, error) {
	return service.users.FindByID(ctx, userID)
}

// ResetPassword sets a new password for the account with emailRaw. It is
// used by the operator CLI, not exposed over HTTP.
func (service *AuthService) ResetPassword(ctx context.Context, emailRaw string, newPassword string) (models.User, error) {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	if err := security.ValidatePasswordStrength(newPassword); err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrAuthUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrPasswordUpdateFailed, err)
	}
	if err := service.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrPasswordUpdateFailed, err)
	}
	user.PasswordHash = hash
	return user, nil
}

package services

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/terraincognita07/mamacare/internal/models"
)

var (
	ErrAuthCredentialsInvalid = errors.New("auth credentials invalid")
	ErrAuthRoleInvalid        = errors.New("auth role invalid")
)

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func NormalizeCredentialsInput(emailRaw string, passwordRaw string) (string, string, error) {
	email := NormalizeAuthEmail(emailRaw)
	password := strings.TrimSpace(passwordRaw)
	if email == "" || password == "" {
		return "", "", ErrAuthCredentialsInvalid
	}
	return email, password, nil
}

// NormalizeRole defaults an empty role to mother.
func NormalizeRole(raw string) (string, error) {
	switch role := strings.ToLower(strings.TrimSpace(raw)); role {
	case "":
		return models.RoleMother, nil
	case models.RoleMother, models.RoleCaregiver:
		return role, nil
	default:
		return "", ErrAuthRoleInvalid
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/security"
	"github.com/terraincognita07/mamacare/internal/services"
)

const temporaryPasswordLength = 12

type PasswordResetter interface {
	ResetPassword(ctx context.Context, email string, newPassword string) (models.User, error)
}

type ResetPasswordOptions struct {
	Email       string
	Interactive bool
	Stdin       *os.File
	Out         io.Writer
}

// RunResetPasswordCommand sets a new password for one account. Without
// Interactive a temporary password is generated and printed once.
func RunResetPasswordCommand(ctx context.Context, auth PasswordResetter, options ResetPasswordOptions) error {
	normalizedEmail := strings.ToLower(strings.TrimSpace(options.Email))
	if normalizedEmail == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(normalizedEmail); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	out := options.Out
	if out == nil {
		out = os.Stdout
	}

	password := ""
	generated := false
	if options.Interactive {
		prompted, err := promptNewPassword(options.Stdin, out)
		if err != nil {
			return err
		}
		password = prompted
	} else {
		temporary, err := generateTemporaryPassword(temporaryPasswordLength)
		if err != nil {
			return fmt.Errorf("generate temporary password: %w", err)
		}
		password = temporary
		generated = true
	}

	if _, err := auth.ResetPassword(ctx, normalizedEmail, password); err != nil {
		switch {
		case errors.Is(err, services.ErrAuthUserNotFound):
			return fmt.Errorf("user %s not found", normalizedEmail)
		case errors.Is(err, security.ErrWeakPassword):
			return fmt.Errorf("password rejected: %w", err)
		default:
			return fmt.Errorf("update user password: %w", err)
		}
	}

	fmt.Fprintf(out, "Password reset for %s\n", normalizedEmail)
	if generated {
		fmt.Fprintf(out, "Temporary password: %s\n", password)
		fmt.Fprintln(out, "Share it with the user over a trusted channel.")
	}
	return nil
}

func generateTemporaryPassword(length int) (string, error) {
	return security.TemporaryPassword(length)
}

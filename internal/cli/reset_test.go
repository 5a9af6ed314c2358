package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/security"
	"github.com/terraincognita07/mamacare/internal/services"
)

type fakeResetter struct {
	err      error
	email    string
	password string
}

func (fake *fakeResetter) ResetPassword(_ context.Context, email string, newPassword string) (models.User, error) {
	fake.email = email
	fake.password = newPassword
	if fake.err != nil {
		return models.User{}, fake.err
	}
	return models.User{ID: 1, Email: email}, nil
}

func TestGenerateTemporaryPasswordMinimumLength(t *testing.T) {
	t.Parallel()

	password, err := generateTemporaryPassword(4)
	if err != nil {
		t.Fatalf("generateTemporaryPassword returned error: %v", err)
	}
	if len(password) != 8 {
		t.Fatalf("generateTemporaryPassword minimum len = %d, want 8", len(password))
	}
	if err := security.ValidatePasswordStrength(password); err != nil {
		t.Fatalf("temporary password %q must pass strength rules: %v", password, err)
	}
}

func TestRunResetPasswordCommandPrintsTemporaryPassword(t *testing.T) {
	t.Parallel()

	resetter := &fakeResetter{}
	out := &bytes.Buffer{}
	err := RunResetPasswordCommand(context.Background(), resetter, ResetPasswordOptions{
		Email: "  Ada@Example.com ",
		Out:   out,
	})
	if err != nil {
		t.Fatalf("RunResetPasswordCommand returned error: %v", err)
	}
	if resetter.email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", resetter.email)
	}
	if len(resetter.password) != temporaryPasswordLength {
		t.Fatalf("expected %d character password, got %q", temporaryPasswordLength, resetter.password)
	}
	if !strings.Contains(out.String(), "Temporary password: "+resetter.password) {
		t.Fatalf("expected temporary password in output, got %q", out.String())
	}
}

func TestRunResetPasswordCommandErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		email   string
		err     error
		message string
	}{
		{name: "missing email", email: " ", message: "email is required"},
		{name: "invalid email", email: "not-an-email", message: "invalid email address"},
		{name: "unknown user", email: "ghost@example.com", err: services.ErrAuthUserNotFound, message: "user ghost@example.com not found"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := RunResetPasswordCommand(context.Background(), &fakeResetter{err: test.err}, ResetPasswordOptions{
				Email: test.email,
				Out:   &bytes.Buffer{},
			})
			if err == nil || !strings.Contains(err.Error(), test.message) {
				t.Fatalf("expected error containing %q, got %v", test.message, err)
			}
		})
	}
}

func pipedStdin(t *testing.T, input string) *os.File {
	t.Helper()

	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	if _, err := writer.WriteString(input); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	_ = writer.Close()
	t.Cleanup(func() {
		_ = reader.Close()
	})
	return reader
}

func TestRunResetPasswordCommandInteractiveReadsPipedInput(t *testing.T) {
	resetter := &fakeResetter{}
	out := &bytes.Buffer{}

	err := RunResetPasswordCommand(context.Background(), resetter, ResetPasswordOptions{
		Email:       "ada@example.com",
		Interactive: true,
		Stdin:       pipedStdin(t, "StrongPass1\nStrongPass1\n"),
		Out:         out,
	})
	if err != nil {
		t.Fatalf("RunResetPasswordCommand returned error: %v", err)
	}
	if resetter.password != "StrongPass1" {
		t.Fatalf("expected prompted password to be used, got %q", resetter.password)
	}
	if strings.Contains(out.String(), "StrongPass1") {
		t.Fatalf("prompted password must not be printed, got %q", out.String())
	}
}

func TestRunResetPasswordCommandInteractiveMismatch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "mismatch", input: "StrongPass1\nStrongPass2\n", message: "passwords do not match"},
		{name: "empty", input: "\n\n", message: "password is required"},
		{name: "closed stdin", input: "StrongPass1\n", message: "read password"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resetter := &fakeResetter{}
			err := RunResetPasswordCommand(context.Background(), resetter, ResetPasswordOptions{
				Email:       "ada@example.com",
				Interactive: true,
				Stdin:       pipedStdin(t, test.input),
				Out:         &bytes.Buffer{},
			})
			if err == nil || !strings.Contains(err.Error(), test.message) {
				t.Fatalf("expected error containing %q, got %v", test.message, err)
			}
			if resetter.email != "" {
				t.Fatal("password must not be reset after a prompt failure")
			}
		})
	}
}

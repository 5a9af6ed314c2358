package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord marks a row that failed boundary validation before it
// reached the store.
var ErrInvalidRecord = errors.New("invalid record")

func requiredField(name string, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidRecord, name)
	}
	return trimmed, nil
}

func requireOwner(userID uint) error {
	if userID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	return nil
}

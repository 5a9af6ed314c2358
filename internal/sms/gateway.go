package sms

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured  = errors.New("sms gateway not configured")
	ErrInvalidRequest = errors.New("invalid sms request")
	ErrDeliveryFailed = errors.New("sms delivery failed")
)

// Gateway delivers one text message to one already-normalized number and
// returns the provider's message id.
type Gateway interface {
	Name() string
	Send(ctx context.Context, to string, body string) (string, error)
}

package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/terraincognita07/mamacare/internal/config"
	"github.com/terraincognita07/mamacare/internal/logger"
	"golang.org/x/sync/errgroup"
)

type MessageType string

const (
	MessageEmergency   MessageType = "emergency"
	MessageHealthTip   MessageType = "health_tip"
	MessageAppointment MessageType = "appointment"
	MessageGeneral     MessageType = "general"
)

func (messageType MessageType) Valid() bool {
	switch messageType {
	case MessageEmergency, MessageHealthTip, MessageAppointment, MessageGeneral:
		return true
	default:
		return false
	}
}

type Recipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Request struct {
	EmergencyContacts []Recipient `json:"emergencyContacts,omitempty"`
	PhoneNumber       string      `json:"phoneNumber,omitempty"`
	Message           string      `json:"message"`
	UserName          string      `json:"userName"`
	MessageType       MessageType `json:"messageType"`
	Language          string      `json:"language,omitempty"`
}

type RecipientResult struct {
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Result struct {
	Success       bool              `json:"success"`
	MessagesSent  int               `json:"messagesSent"`
	TotalContacts int               `json:"totalContacts"`
	Results       []RecipientResult `json:"results"`
}

type Translator interface {
	Translatef(language string, key string, args ...any) string
}

type DispatcherOptions struct {
	CountryCode string
	MaxParallel int
}

// Dispatcher fans one message out to every recipient through a Gateway.
// A nil gateway means SMS is disabled and every Send reports
// ErrNotConfigured.
type Dispatcher struct {
	gateway     Gateway
	messages    Translator
	log         *logger.Logger
	countryCode string
	maxParallel int
}

func NewDispatcher(gateway Gateway, messages Translator, log *logger.Logger, options DispatcherOptions) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	if options.MaxParallel <= 0 {
		options.MaxParallel = 4
	}
	return &Dispatcher{
		gateway:     gateway,
		messages:    messages,
		log:         log.With("component", "sms"),
		countryCode: options.CountryCode,
		maxParallel: options.MaxParallel,
	}
}

// NewGateway builds the gateway selected by cfg.Provider. Provider "none"
// yields a nil gateway and no error.
func NewGateway(log *logger.Logger, cfg config.SMSConfig) (Gateway, error) {
	switch cfg.Provider {
	case config.SMSProviderNone, "":
		return nil, nil
	case config.SMSProviderTermii:
		return NewTermiiGateway(log, TermiiConfig{
			APIKey:     cfg.TermiiAPIKey,
			SenderID:   cfg.TermiiSenderID,
			BaseURL:    cfg.TermiiBaseURL,
			MaxRetries: 2,
		})
	case config.SMSProviderTwilio:
		return NewTwilioGateway(log, TwilioConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFromNumber,
			BaseURL:    cfg.TwilioBaseURL,
			MaxRetries: 2,
		})
	default:
		return nil, fmt.Errorf("unsupported sms provider %q", cfg.Provider)
	}
}

func (dispatcher *Dispatcher) Configured() bool {
	return dispatcher != nil && dispatcher.gateway != nil
}

// Send delivers request to every recipient. The returned Result is always
// populated once the request is valid, including when err is
// ErrDeliveryFailed.
func (dispatcher *Dispatcher) Send(ctx context.Context, request Request) (Result, error) {
	recipients, body, err := dispatcher.prepare(request)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		TotalContacts: len(recipients),
		Results:       make([]RecipientResult, len(recipients)),
	}
	if !dispatcher.Configured() {
		return result, ErrNotConfigured
	}

	var group errgroup.Group
	group.SetLimit(dispatcher.maxParallel)
	for index, recipient := range recipients {
		group.Go(func() error {
			outcome := RecipientResult{Name: recipient.Name, Phone: recipient.Phone}
			messageID, sendErr := dispatcher.gateway.Send(ctx, recipient.Phone, body)
			if sendErr != nil {
				outcome.Error = sendErr.Error()
				dispatcher.log.Warn("sms send failed",
					"gateway", dispatcher.gateway.Name(),
					"phone", recipient.Phone,
					"type", string(request.MessageType),
					"error", sendErr.Error(),
				)
			} else {
				outcome.Success = true
				outcome.MessageID = messageID
			}
			result.Results[index] = outcome
			return nil
		})
	}
	_ = group.Wait()

	for _, outcome := range result.Results {
		if outcome.Success {
			result.MessagesSent++
		}
	}
	result.Success = result.MessagesSent > 0
	dispatcher.log.Info("sms dispatched",
		"gateway", dispatcher.gateway.Name(),
		"type", string(request.MessageType),
		"sent", result.MessagesSent,
		"total", result.TotalContacts,
	)
	if !result.Success {
		return result, fmt.Errorf("%w: 0 of %d messages sent", ErrDeliveryFailed, result.TotalContacts)
	}
	return result, nil
}

func (dispatcher *Dispatcher) prepare(request Request) ([]Recipient, string, error) {
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return nil, "", fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	messageType := request.MessageType
	if messageType == "" {
		messageType = MessageGeneral
	}
	if !messageType.Valid() {
		return nil, "", fmt.Errorf("%w: message type %q is not supported", ErrInvalidRequest, request.MessageType)
	}

	recipients := make([]Recipient, 0, len(request.EmergencyContacts)+1)
	seen := make(map[string]struct{}, len(request.EmergencyContacts)+1)
	add := func(name string, phone string) {
		normalized := NormalizePhone(phone, dispatcher.countryCode)
		if normalized == "" {
			return
		}
		if _, duplicate := seen[normalized]; duplicate {
			return
		}
		seen[normalized] = struct{}{}
		recipients = append(recipients, Recipient{Name: strings.TrimSpace(name), Phone: normalized})
	}
	for _, contact := range request.EmergencyContacts {
		add(contact.Name, contact.Phone)
	}
	if len(recipients) == 0 {
		add("", request.PhoneNumber)
	}
	if len(recipients) == 0 {
		return nil, "", fmt.Errorf("%w: at least one phone number is required", ErrInvalidRequest)
	}

	return recipients, dispatcher.Compose(request.Language, messageType, request.UserName, message), nil
}

// Compose renders the SMS body for messageType in language.
func (dispatcher *Dispatcher) Compose(language string, messageType MessageType, userName string, message string) string {
	sender := strings.TrimSpace(userName)
	if dispatcher.messages == nil {
		if sender == "" {
			return message
		}
		return sender + ": " + message
	}
	if sender == "" {
		sender = dispatcher.messages.Translatef(language, "sms.unknown_sender")
	}
	return dispatcher.messages.Translatef(language, "sms."+string(messageType), sender, message)
}

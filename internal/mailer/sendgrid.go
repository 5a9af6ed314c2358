// Package mailer sends transactional email through the SendGrid v3 API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/httpx"
	"github.com/terraincognita07/mamacare/internal/logger"
)

var ErrNotConfigured = errors.New("email is not configured")

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Message struct {
	To      []Address
	Subject string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, message Message) (string, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	FromName   string
	Timeout    time.Duration
	MaxRetries int
}

type SendGrid struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewSendGrid(log *logger.Logger, cfg Config) (*SendGrid, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing SENDGRID_API_KEY", ErrNotConfigured)
	}
	cfg.FromEmail = strings.TrimSpace(cfg.FromEmail)
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("%w: missing SENDGRID_FROM_EMAIL", ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.FromName) == "" {
		cfg.FromName = "MamaCare"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &SendGrid{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

type personalization struct {
	To []Address `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Send posts message and returns SendGrid's X-Message-Id.
func (client *SendGrid) Send(ctx context.Context, message Message) (string, error) {
	recipients := make([]Address, 0, len(message.To))
	for _, address := range message.To {
		address.Email = strings.TrimSpace(address.Email)
		address.Name = strings.TrimSpace(address.Name)
		if address.Email != "" {
			recipients = append(recipients, address)
		}
	}
	if len(recipients) == 0 {
		return "", errors.New("sendgrid: To required")
	}
	subject := strings.TrimSpace(message.Subject)
	text := strings.TrimSpace(message.Text)
	if subject == "" || text == "" {
		return "", errors.New("sendgrid: Subject and Text required")
	}

	payload, err := json.Marshal(mailSendRequest{
		Personalizations: []personalization{{To: recipients}},
		From:             Address{Email: client.cfg.FromEmail, Name: client.cfg.FromName},
		Subject:          subject,
		Content:          []mailContent{{Type: "text/plain", Value: text}},
	})
	if err != nil {
		return "", fmt.Errorf("encode sendgrid request: %w", err)
	}

	var messageID string
	err = httpx.Retry(ctx, client.cfg.MaxRetries, time.Second, func() (*http.Response, error) {
		resp, sendErr := client.sendOnce(ctx, payload)
		if sendErr == nil && resp != nil {
			messageID = strings.TrimSpace(resp.Header.Get("X-Message-Id"))
		}
		return resp, sendErr
	}, func(attempt int, sleep time.Duration, err error) {
		client.log.Warn("Sendgrid request retrying", "attempt", attempt, "sleep", sleep.String(), "error", err.Error())
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

func (client *SendGrid) sendOnce(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+client.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := string(raw)
		var parsed errorResponse
		if json.Unmarshal(raw, &parsed) == nil && len(parsed.Errors) > 0 && strings.TrimSpace(parsed.Errors[0].Message) != "" {
			body = parsed.Errors[0].Message
		}
		return resp, &httpx.StatusError{Service: "sendgrid", StatusCode: resp.StatusCode, Body: body}
	}
	return resp, nil
}

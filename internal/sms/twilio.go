package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/httpx"
	"github.com/terraincognita07/mamacare/internal/logger"
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type TwilioGateway struct {
	log        *logger.Logger
	cfg        TwilioConfig
	httpClient *http.Client
}

func NewTwilioGateway(log *logger.Logger, cfg TwilioConfig) (*TwilioGateway, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg.AccountSID = strings.TrimSpace(cfg.AccountSID)
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	cfg.FromNumber = strings.TrimSpace(cfg.FromNumber)
	if cfg.AccountSID == "" {
		return nil, fmt.Errorf("%w: missing TWILIO_ACCOUNT_SID", ErrNotConfigured)
	}
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("%w: missing TWILIO_AUTH_TOKEN", ErrNotConfigured)
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("%w: missing TWILIO_FROM_NUMBER", ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultTwilioBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &TwilioGateway{
		log:        log.With("client", "TwilioClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (gateway *TwilioGateway) Name() string {
	return "twilio"
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (gateway *TwilioGateway) Send(ctx context.Context, to string, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", gateway.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", gateway.cfg.BaseURL, gateway.cfg.AccountSID)
	var out twilioMessage
	err := httpx.Retry(ctx, gateway.cfg.MaxRetries, time.Second, func() (*http.Response, error) {
		return gateway.sendOnce(ctx, endpoint, form, &out)
	}, func(attempt int, sleep time.Duration, err error) {
		gateway.log.Warn("Twilio request retrying", "attempt", attempt, "sleep", sleep.String(), "error", err.Error())
	})
	if err != nil {
		return "", err
	}
	return out.SID, nil
}

func (gateway *TwilioGateway) sendOnce(ctx context.Context, endpoint string, form url.Values, out *twilioMessage) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(gateway.cfg.AccountSID, gateway.cfg.AuthToken)

	resp, err := gateway.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := string(raw)
		var apiErr twilioAPIError
		if json.Unmarshal(raw, &apiErr) == nil && strings.TrimSpace(apiErr.Message) != "" {
			message = fmt.Sprintf("%s (code=%d)", apiErr.Message, apiErr.Code)
		}
		return resp, &httpx.StatusError{Service: "twilio", StatusCode: resp.StatusCode, Body: message}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp, fmt.Errorf("twilio decode error: %w", err)
	}
	return resp, nil
}

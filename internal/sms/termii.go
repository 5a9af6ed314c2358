package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/httpx"
	"github.com/terraincognita07/mamacare/internal/logger"
)

const defaultTermiiBaseURL = "https://api.ng.termii.com"

type TermiiConfig struct {
	APIKey     string
	SenderID   string
	BaseURL    string
	Channel    string
	Timeout    time.Duration
	MaxRetries int
}

type TermiiGateway struct {
	log        *logger.Logger
	cfg        TermiiConfig
	httpClient *http.Client
}

func NewTermiiGateway(log *logger.Logger, cfg TermiiConfig) (*TermiiGateway, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing TERMII_API_KEY", ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.SenderID) == "" {
		cfg.SenderID = "MamaCare"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultTermiiBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Channel == "" {
		cfg.Channel = "generic"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &TermiiGateway{
		log:        log.With("client", "TermiiClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (gateway *TermiiGateway) Name() string {
	return "termii"
}

type termiiSendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	APIKey  string `json:"api_key"`
}

type termiiSendResponse struct {
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}

func (gateway *TermiiGateway) Send(ctx context.Context, to string, body string) (string, error) {
	payload, err := json.Marshal(termiiSendRequest{
		// Termii expects the number without the leading plus.
		To:      strings.TrimPrefix(to, "+"),
		From:    gateway.cfg.SenderID,
		SMS:     body,
		Type:    "plain",
		Channel: gateway.cfg.Channel,
		APIKey:  gateway.cfg.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("encode termii request: %w", err)
	}

	endpoint := gateway.cfg.BaseURL + "/api/sms/send"
	var out termiiSendResponse
	err = httpx.Retry(ctx, gateway.cfg.MaxRetries, time.Second, func() (*http.Response, error) {
		return gateway.sendOnce(ctx, endpoint, payload, &out)
	}, func(attempt int, sleep time.Duration, err error) {
		gateway.log.Warn("Termii request retrying", "attempt", attempt, "sleep", sleep.String(), "error", err.Error())
	})
	if err != nil {
		return "", err
	}
	return out.MessageID, nil
}

func (gateway *TermiiGateway) sendOnce(ctx context.Context, endpoint string, payload []byte, out *termiiSendResponse) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

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
		return resp, &httpx.StatusError{Service: "termii", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp, fmt.Errorf("termii decode error: %w", err)
		}
	}
	return resp, nil
}

// Package assistant answers maternal-care questions through an OpenAI
// compatible chat completions endpoint.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/httpx"
	"github.com/terraincognita07/mamacare/internal/logger"
)

var (
	ErrNotConfigured    = errors.New("chat assistant is not configured")
	ErrInvalidRequest   = errors.New("invalid chat request")
	ErrCompletionFailed = errors.New("chat completion failed")
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	systemPrompt = `You are MamaCare, a warm and knowledgeable maternal health companion.
You support expecting and new mothers with pregnancy, childbirth and early baby care questions.
Give clear, practical and culturally sensitive answers in plain language.
Never diagnose. When symptoms could be serious (heavy bleeding, severe headache, blurred vision,
reduced fetal movement, high fever, convulsions) tell the user to contact a health worker or
emergency services immediately. Keep answers under 200 words.`

	// FallbackResponse is returned to the user whenever the completion
	// endpoint cannot answer.
	FallbackResponse = "I'm having trouble answering right now. For urgent concerns please contact your midwife, " +
		"doctor or the nearest health facility. If you have heavy bleeding, severe pain or difficulty breathing, " +
		"use the emergency button to alert your contacts."
)

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Request mirrors the chat function payload. BabyAges holds ages in weeks.
type Request struct {
	Message       string `json:"message"`
	PregnancyWeek *int   `json:"pregnancyWeek,omitempty"`
	HasDelivered  bool   `json:"hasDelivered,omitempty"`
	BabyCount     int    `json:"babyCount,omitempty"`
	BabyAges      []int  `json:"babyAges,omitempty"`
}

type Response struct {
	Response         string `json:"response,omitempty"`
	Success          bool   `json:"success"`
	Error            string `json:"error,omitempty"`
	FallbackResponse string `json:"fallbackResponse,omitempty"`
}

type Assistant struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// New never fails: a missing API key yields an assistant whose replies are
// all fallbacks wrapped in ErrNotConfigured.
func New(log *logger.Logger, cfg Config) *Assistant {
	if log == nil {
		log = logger.Nop()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Assistant{
		log:        log.With("client", "OpenAIChat"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (assistant *Assistant) Configured() bool {
	return assistant != nil && assistant.cfg.APIKey != ""
}

// Reply validates request and asks the model for an answer. On any
// completion failure the returned Response carries the error text and the
// fallback answer, and err wraps ErrNotConfigured or ErrCompletionFailed.
func (assistant *Assistant) Reply(ctx context.Context, request Request) (Response, error) {
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return Response{}, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	if !assistant.Configured() {
		return failure(ErrNotConfigured), ErrNotConfigured
	}

	messages := []chatMessage{{Role: "system", Content: systemPrompt}}
	if line := ContextLine(request); line != "" {
		messages = append(messages, chatMessage{Role: "system", Content: line})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	answer, err := assistant.complete(ctx, messages)
	if err != nil {
		assistant.log.Warn("chat completion failed", "model", assistant.cfg.Model, "error", err.Error())
		wrapped := fmt.Errorf("%w: %v", ErrCompletionFailed, err)
		return failure(wrapped), wrapped
	}
	return Response{Response: answer, Success: true}, nil
}

func failure(err error) Response {
	return Response{Error: err.Error(), FallbackResponse: FallbackResponse}
}

// ContextLine describes the user's situation for the model. It returns ""
// when nothing is known.
func ContextLine(request Request) string {
	if request.HasDelivered {
		count := request.BabyCount
		if count <= 0 {
			count = len(request.BabyAges)
		}
		line := "The user has given birth"
		if count == 1 {
			line += " and is caring for 1 baby"
		} else if count > 1 {
			line += " and is caring for " + strconv.Itoa(count) + " babies"
		}
		if len(request.BabyAges) > 0 {
			ages := make([]string, 0, len(request.BabyAges))
			for _, weeks := range request.BabyAges {
				ages = append(ages, formatWeeks(weeks))
			}
			line += " (ages: " + strings.Join(ages, ", ") + ")"
		}
		return line + "."
	}
	if request.PregnancyWeek != nil && *request.PregnancyWeek > 0 {
		return "The user is currently " + formatWeeks(*request.PregnancyWeek) + " pregnant."
	}
	return ""
}

func formatWeeks(weeks int) string {
	if weeks == 1 {
		return "1 week"
	}
	return strconv.Itoa(weeks) + " weeks"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (assistant *Assistant) complete(ctx context.Context, messages []chatMessage) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       assistant.cfg.Model,
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	var out chatCompletionResponse
	err = httpx.Retry(ctx, assistant.cfg.MaxRetries, time.Second, func() (*http.Response, error) {
		return assistant.completeOnce(ctx, payload, &out)
	}, func(attempt int, sleep time.Duration, err error) {
		assistant.log.Warn("OpenAI request retrying", "attempt", attempt, "sleep", sleep.String(), "error", err.Error())
	})
	if err != nil {
		return "", err
	}
	if out.Error != nil && strings.TrimSpace(out.Error.Message) != "" {
		return "", errors.New(out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	answer := strings.TrimSpace(out.Choices[0].Message.Content)
	if answer == "" {
		return "", errors.New("empty completion returned")
	}
	return answer, nil
}

func (assistant *Assistant) completeOnce(ctx context.Context, payload []byte, out *chatCompletionResponse) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, assistant.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+assistant.cfg.APIKey)

	resp, err := assistant.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &httpx.StatusError{Service: "openai", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp, fmt.Errorf("openai decode error: %w", err)
	}
	return resp, nil
}

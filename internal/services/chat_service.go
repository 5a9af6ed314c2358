package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/assistant"
	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrChatSaveFailed = errors.New("chat save failed")

type ChatRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListRecent(ctx context.Context, userID uint, limit int) ([]models.ChatMessage, error)
}

type ChatReplier interface {
	Reply(ctx context.Context, request assistant.Request) (assistant.Response, error)
}

type PregnancyReader interface {
	FindByUser(ctx context.Context, userID uint) (models.PregnancyRecord, error)
}

type BabyLister interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Baby, error)
}

type ChatDeps struct {
	Messages    ChatRepository
	Assistant   ChatReplier
	Modes       ModeReader
	Pregnancies PregnancyReader
	Babies      BabyLister
	Log         *logger.Logger
}

type ChatService struct {
	messages    ChatRepository
	assistant   ChatReplier
	modes       ModeReader
	pregnancies PregnancyReader
	babies      BabyLister
	log         *logger.Logger
	now         func() time.Time
}

type ChatResult struct {
	Message  models.ChatMessage `json:"message"`
	Response assistant.Response `json:"response"`
}

func NewChatService(deps ChatDeps) *ChatService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &ChatService{
		messages:    deps.Messages,
		assistant:   deps.Assistant,
		modes:       deps.Modes,
		pregnancies: deps.Pregnancies,
		babies:      deps.Babies,
		log:         log,
		now:         time.Now,
	}
}

// Ask fills the assistant request from the user's mode, gestational week and
// babies, then stores the exchange. A failed completion is stored with the
// fallback answer and does not return an error.
func (service *ChatService) Ask(ctx context.Context, session *Session, message string) (ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatResult{}, fmt.Errorf("%w: message is required", assistant.ErrInvalidRequest)
	}

	request, err := service.BuildRequest(ctx, session, message)
	if err != nil {
		return ChatResult{}, err
	}

	response, replyErr := service.assistant.Reply(ctx, request)
	if replyErr != nil && errors.Is(replyErr, assistant.ErrInvalidRequest) {
		return ChatResult{}, replyErr
	}

	answer := response.Response
	fallback := !response.Success
	if fallback {
		answer = response.FallbackResponse
		service.log.Warn("chat answered with fallback", "user_id", session.UserID, "error", response.Error)
	}

	snapshot, err := json.Marshal(request)
	if err != nil {
		return ChatResult{}, err
	}
	entry := models.ChatMessage{
		UserID:    session.UserID,
		Question:  message,
		Answer:    answer,
		Fallback:  fallback,
		Context:   datatypes.JSON(snapshot),
		CreatedAt: service.now().UTC(),
	}
	if err := service.messages.Create(ctx, &entry); err != nil {
		return ChatResult{Response: response}, fmt.Errorf("%w: %v", ErrChatSaveFailed, err)
	}
	return ChatResult{Message: entry, Response: response}, nil
}

func (service *ChatService) BuildRequest(ctx context.Context, session *Session, message string) (assistant.Request, error) {
	request := assistant.Request{Message: message}

	state, err := service.modes.Current(ctx, session)
	if err != nil {
		return assistant.Request{}, err
	}

	now := service.now()
	switch state.Mode {
	case models.ModePregnancy:
		record, err := service.pregnancies.FindByUser(ctx, session.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return assistant.Request{}, err
		}
		if err == nil {
			if week := ResolveWeek(&record, now); week > 0 {
				request.PregnancyWeek = &week
			}
		}
	case models.ModePostpartum:
		request.HasDelivered = true
		babies, err := service.babies.ListByUser(ctx, session.UserID)
		if err != nil {
			return assistant.Request{}, err
		}
		request.BabyCount = len(babies)
		for _, baby := range babies {
			request.BabyAges = append(request.BabyAges, AgeInWeeks(baby.BirthDate, now))
		}
	}
	return request, nil
}

func (service *ChatService) History(ctx context.Context, userID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return service.messages.ListRecent(ctx, userID, limit)
}

package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/models"
	"github.com/terraincognita07/mamacare/internal/security"
	"github.com/terraincognita07/mamacare/internal/services"
)

type registerPayload struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	Role        string `json:"role" form:"role"`
	DisplayName string `json:"display_name" form:"display_name"`
	Phone       string `json:"phone" form:"phone"`
	Language    string `json:"language" form:"language"`
}

type loginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type sessionResponse struct {
	User  models.User        `json:"user"`
	Mode  services.ModeState `json:"mode"`
	Token string             `json:"token"`
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	payload := registerPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if strings.TrimSpace(payload.Language) == "" {
		payload.Language = currentLanguage(c)
	}

	user, err := handler.deps.Auth.Register(c.UserContext(), services.RegisterInput{
		Email:       payload.Email,
		Password:    payload.Password,
		Role:        payload.Role,
		DisplayName: payload.DisplayName,
		Phone:       payload.Phone,
		Language:    payload.Language,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailAlreadyRegistered) {
			return apiError(c, fiber.StatusConflict, "email already exists")
		}
		return handler.serviceError(c, err, "failed to create account")
	}

	handler.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return handler.startSession(c, user, fiber.StatusCreated)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	payload := loginPayload{}
	if err := parseBody(c, &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	now := handler.now()
	limiterKey := loginLimiterKey(c, payload.Email)
	if handler.loginLimiter.tooManyRecent(limiterKey, now, loginAttemptLimit, loginWindow) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	user, err := handler.deps.Auth.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrAuthCredentialsInvalid) {
			handler.loginLimiter.addFailure(limiterKey, now, loginWindow)
			return apiError(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		return handler.serviceError(c, err, "failed to sign in")
	}

	handler.loginLimiter.reset(limiterKey)
	return handler.startSession(c, user, fiber.StatusOK)
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	if session, ok := currentSession(c); ok {
		handler.deps.Sessions.Close(session.ID)
	}
	handler.clearSessionCookie(c)
	return sendNoContent(c)
}

// startSession opens a server-side session, resolves its mode and hands the
// signed token to the client as a cookie and in the body.
func (handler *Handler) startSession(c *fiber.Ctx, user models.User, status int) error {
	session := handler.deps.Sessions.Open(user.ID, user.Role)
	state, err := handler.deps.Modes.Current(c.UserContext(), session)
	if err != nil {
		handler.deps.Sessions.Close(session.ID)
		return handler.serviceError(c, err, "failed to load account state")
	}

	token, err := security.IssueSessionToken(handler.secretKey, user.ID, user.Role, session.ID, handler.sessionTTL, handler.now())
	if err != nil {
		handler.deps.Sessions.Close(session.ID)
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}

	handler.setSessionCookie(c, token)
	return c.Status(status).JSON(sessionResponse{User: user, Mode: state, Token: token})
}

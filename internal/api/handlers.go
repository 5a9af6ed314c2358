package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/mamacare/internal/i18n"
	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/services"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	loginAttemptLimit = 5
	loginWindow       = 15 * time.Minute
)

type Options struct {
	SecretKey    string
	CookieSecure bool
	Location     *time.Location
	SessionTTL   time.Duration
}

type Handler struct {
	deps         Dependencies
	secretKey    []byte
	location     *time.Location
	cookieSecure bool
	sessionTTL   time.Duration
	i18n         *i18n.Manager
	log          *logger.Logger
	loginLimiter *attemptLimiter
	now          func() time.Time
}

func NewHandler(deps Dependencies, options Options) (*Handler, error) {
	if len(options.SecretKey) == 0 {
		return nil, errors.New("secret key is required")
	}
	if deps.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.SessionTTL <= 0 {
		options.SessionTTL = defaultSessionTTL
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	return &Handler{
		deps:         deps,
		secretKey:    []byte(options.SecretKey),
		location:     options.Location,
		cookieSecure: options.CookieSecure,
		sessionTTL:   options.SessionTTL,
		i18n:         deps.I18n,
		log:          log.With("component", "api"),
		loginLimiter: newAttemptLimiter(),
		now:          time.Now,
	}, nil
}

func (handler *Handler) Sessions() *services.SessionStore {
	return handler.deps.Sessions
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/mamacare/internal/api"
	"github.com/terraincognita07/mamacare/internal/assistant"
	"github.com/terraincognita07/mamacare/internal/broadcast"
	"github.com/terraincognita07/mamacare/internal/config"
	"github.com/terraincognita07/mamacare/internal/db"
	"github.com/terraincognita07/mamacare/internal/geo"
	"github.com/terraincognita07/mamacare/internal/i18n"
	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/mailer"
	"github.com/terraincognita07/mamacare/internal/places"
	"github.com/terraincognita07/mamacare/internal/services"
	"github.com/terraincognita07/mamacare/internal/sms"
)

const (
	shutdownTimeout     = 10 * time.Second
	sessionSweepEvery   = 15 * time.Minute
	upstreamMaxRetries  = 2
	mapsLookupTimeout   = 10 * time.Second
	emailRequestTimeout = 30 * time.Second
)

func newServeCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), options)
		},
	}
}

func runServe(ctx context.Context, options *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, log, err := options.load("server")
	if err != nil {
		return err
	}
	defer log.Sync()

	secretKey, err := cfg.ResolveSecretKey()
	if err != nil {
		return fmt.Errorf("secret key: %w", err)
	}
	port, err := resolvePort(cfg.Server.Port)
	if err != nil {
		return err
	}
	location := cfg.Location()
	time.Local = location

	database, err := db.Open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	i18nManager, err := i18n.NewManager(cfg.Server.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	integrations, closeIntegrations := buildIntegrations(cfg, log, i18nManager)
	defer closeIntegrations()

	deps := api.NewDependencies(database, integrations)
	handler, err := api.NewHandler(deps, api.Options{
		SecretKey:    secretKey,
		CookieSecure: cfg.Server.CookieSecure,
		Location:     location,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := newApp(handler, cfg.Server.AllowedOrigins)

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	deps.Reminders.Start(sigCtx)
	go sweepSessions(sigCtx, handler.Sessions(), log)

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("mamacare listening",
		"addr", "0.0.0.0:"+port,
		"db_driver", cfg.Database.Driver,
		"tz", location.String(),
		"sms", integrations.SMS != nil,
	)
	if err := app.Listen(":" + port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func newApp(handler *api.Handler, allowedOrigins []string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "MamaCare",
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(compress.New())
	if len(allowedOrigins) > 0 {
		app.Use(cors.New(corsMiddlewareConfig(allowedOrigins)))
	}
	app.Use(handler.LanguageMiddleware)

	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}

func corsMiddlewareConfig(allowedOrigins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     strings.Join(allowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,Accept-Language",
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}
}

func resolvePort(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		return "8080", nil
	}
	value, err := strconv.Atoi(port)
	if err != nil || value < 1 || value > 65535 {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	return port, nil
}

// buildIntegrations wires the outbound clients. Missing credentials leave
// the matching feature disabled; the returned func releases connections.
func buildIntegrations(cfg config.Config, log *logger.Logger, messages *i18n.Manager) (api.Integrations, func()) {
	integrations := api.Integrations{
		I18n:        messages,
		Log:         log,
		Location:    cfg.Location(),
		CountryCode: cfg.SMS.DefaultCountryCode,
		GeoTimeout:  cfg.GeoTimeout(),
		SymptomPolicy: services.SevereSymptomPolicy{
			AutoAlert: cfg.Emergency.SevereSymptomAutoAlert,
			Cooldown:  cfg.SevereSymptomCooldown(),
		},
		ReminderEvery: cfg.ReminderInterval(),
		ReminderLead:  cfg.ReminderLead(),
	}

	gateway, err := sms.NewGateway(log, cfg.SMS)
	if err != nil {
		log.Warn("sms disabled", "provider", cfg.SMS.Provider, "error", err)
		gateway = nil
	}
	dispatcher := sms.NewDispatcher(gateway, messages, log, sms.DispatcherOptions{
		CountryCode: cfg.SMS.DefaultCountryCode,
		MaxParallel: cfg.SMS.MaxParallel,
	})
	if dispatcher.Configured() {
		integrations.SMS = dispatcher
	}

	integrations.Assistant = assistant.New(log, assistant.Config{
		APIKey:     cfg.OpenAI.APIKey,
		Model:      cfg.OpenAI.Model,
		BaseURL:    cfg.OpenAI.BaseURL,
		Timeout:    time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		MaxRetries: upstreamMaxRetries,
	})
	integrations.Places = places.New(log, places.Config{
		APIKey:     cfg.Maps.APIKey,
		BaseURL:    cfg.Maps.BaseURL,
		Timeout:    mapsLookupTimeout,
		MaxRetries: upstreamMaxRetries,
	})

	if strings.TrimSpace(cfg.Geo.LookupURL) != "" {
		integrations.Locator = geo.NewIPLocator(cfg.Geo.LookupURL, cfg.GeoTimeout())
	}

	if strings.TrimSpace(cfg.Email.SendGridAPIKey) != "" {
		sender, err := mailer.NewSendGrid(log, mailer.Config{
			APIKey:     cfg.Email.SendGridAPIKey,
			BaseURL:    cfg.Email.BaseURL,
			FromEmail:  cfg.Email.FromEmail,
			FromName:   cfg.Email.FromName,
			Timeout:    emailRequestTimeout,
			MaxRetries: upstreamMaxRetries,
		})
		if err != nil {
			log.Warn("email alerts disabled", "error", err)
		} else {
			integrations.Email = sender
		}
	}

	publisher := broadcast.Noop()
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		redisPublisher, err := broadcast.NewRedisPublisher(log, cfg.Redis.Addr, cfg.Redis.Channel)
		if err != nil {
			log.Warn("alert broadcast disabled", "error", err)
		} else {
			publisher = redisPublisher
		}
	}
	integrations.Broadcast = publisher

	return integrations, func() {
		if err := publisher.Close(); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("close alert broadcast", "error", err)
		}
	}
}

func sweepSessions(ctx context.Context, sessions *services.SessionStore, log *logger.Logger) {
	ticker := time.NewTicker(sessionSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := sessions.Sweep(); dropped > 0 {
				log.Debug("expired sessions dropped", "count", dropped)
			}
		}
	}
}

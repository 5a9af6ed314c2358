package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SMSProviderTermii = "termii"
	SMSProviderTwilio = "twilio"
	SMSProviderNone   = "none"

	minSecretKeyLength = 32
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

// Config holds all mamacare settings. Values come from an optional YAML
// file and are then overridden by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	SMS       SMSConfig       `yaml:"sms"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Maps      MapsConfig      `yaml:"maps"`
	Email     EmailConfig     `yaml:"email"`
	Redis     RedisConfig     `yaml:"redis"`
	Geo       GeoConfig       `yaml:"geo"`
	Reminders RemindersConfig `yaml:"reminders"`
	Emergency EmergencyConfig `yaml:"emergency"`
}

type ServerConfig struct {
	Port            string   `yaml:"port"`
	SecretKey       string   `yaml:"secret_key"`
	CookieSecure    bool     `yaml:"cookie_secure"`
	Timezone        string   `yaml:"timezone"`
	DefaultLanguage string   `yaml:"default_language"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

type LoggingConfig struct {
	Mode     string `yaml:"mode"`
	Level    string `yaml:"level"`
	Redact   bool   `yaml:"redact"`
	HashSalt string `yaml:"hash_salt"`
}

type SMSConfig struct {
	Provider           string `yaml:"provider"`
	DefaultCountryCode string `yaml:"default_country_code"`
	MaxParallel        int    `yaml:"max_parallel"`
	TermiiAPIKey       string `yaml:"termii_api_key"`
	TermiiSenderID     string `yaml:"termii_sender_id"`
	TermiiBaseURL      string `yaml:"termii_base_url"`
	TwilioAccountSID   string `yaml:"twilio_account_sid"`
	TwilioAuthToken    string `yaml:"twilio_auth_token"`
	TwilioFromNumber   string `yaml:"twilio_from_number"`
	TwilioBaseURL      string `yaml:"twilio_base_url"`
}

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type MapsConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	BaseURL        string `yaml:"base_url"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type GeoConfig struct {
	LookupURL      string `yaml:"lookup_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RemindersConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	LeadHours       int `yaml:"lead_hours"`
}

type EmergencyConfig struct {
	SevereSymptomAutoAlert bool `yaml:"severe_symptom_auto_alert"`
	CooldownMinutes        int  `yaml:"cooldown_minutes"`
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			Timezone:        "UTC",
			DefaultLanguage: "en",
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "data/mamacare.db",
		},
		Logging: LoggingConfig{
			Mode:   "development",
			Level:  "info",
			Redact: true,
		},
		SMS: SMSConfig{
			Provider:           SMSProviderTermii,
			DefaultCountryCode: "234",
			MaxParallel:        4,
			TermiiSenderID:     "MamaCare",
		},
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		Redis: RedisConfig{
			Channel: "emergency-alerts",
		},
		Geo: GeoConfig{
			TimeoutSeconds: 3,
		},
		Reminders: RemindersConfig{
			IntervalMinutes: 60,
			LeadHours:       24,
		},
		Emergency: EmergencyConfig{
			SevereSymptomAutoAlert: true,
			CooldownMinutes:        30,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty) on top of
// the defaults and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnvOverrides() {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.SecretKey = getEnv("SECRET_KEY", cfg.Server.SecretKey)
	cfg.Server.CookieSecure = getEnvBool("COOKIE_SECURE", cfg.Server.CookieSecure)
	cfg.Server.Timezone = getEnv("TZ", cfg.Server.Timezone)
	cfg.Server.DefaultLanguage = getEnv("DEFAULT_LANGUAGE", cfg.Server.DefaultLanguage)
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		cfg.Server.AllowedOrigins = splitList(raw)
	}

	cfg.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", cfg.Database.Driver))
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)

	cfg.Logging.Mode = getEnv("LOG_MODE", cfg.Logging.Mode)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Redact = getEnvBool("LOG_REDACTION_ENABLED", cfg.Logging.Redact)
	cfg.Logging.HashSalt = getEnv("LOG_HASH_SALT", cfg.Logging.HashSalt)

	cfg.SMS.Provider = strings.ToLower(getEnv("SMS_PROVIDER", cfg.SMS.Provider))
	cfg.SMS.DefaultCountryCode = getEnv("SMS_DEFAULT_COUNTRY_CODE", cfg.SMS.DefaultCountryCode)
	cfg.SMS.MaxParallel = getEnvInt("SMS_MAX_PARALLEL", cfg.SMS.MaxParallel)
	cfg.SMS.TermiiAPIKey = getEnv("TERMII_API_KEY", cfg.SMS.TermiiAPIKey)
	cfg.SMS.TermiiSenderID = getEnv("TERMII_SENDER_ID", cfg.SMS.TermiiSenderID)
	cfg.SMS.TermiiBaseURL = getEnv("TERMII_BASE_URL", cfg.SMS.TermiiBaseURL)
	cfg.SMS.TwilioAccountSID = getEnv("TWILIO_ACCOUNT_SID", cfg.SMS.TwilioAccountSID)
	cfg.SMS.TwilioAuthToken = getEnv("TWILIO_AUTH_TOKEN", cfg.SMS.TwilioAuthToken)
	cfg.SMS.TwilioFromNumber = getEnv("TWILIO_FROM_NUMBER", cfg.SMS.TwilioFromNumber)
	cfg.SMS.TwilioBaseURL = getEnv("TWILIO_BASE_URL", cfg.SMS.TwilioBaseURL)

	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = getEnv("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.TimeoutSeconds = getEnvInt("OPENAI_TIMEOUT_SECONDS", cfg.OpenAI.TimeoutSeconds)

	cfg.Maps.APIKey = getEnv("MAPS_API_KEY", cfg.Maps.APIKey)
	cfg.Maps.BaseURL = getEnv("MAPS_BASE_URL", cfg.Maps.BaseURL)

	cfg.Email.SendGridAPIKey = getEnv("SENDGRID_API_KEY", cfg.Email.SendGridAPIKey)
	cfg.Email.FromEmail = getEnv("SENDGRID_FROM_EMAIL", cfg.Email.FromEmail)
	cfg.Email.FromName = getEnv("SENDGRID_FROM_NAME", cfg.Email.FromName)
	cfg.Email.BaseURL = getEnv("SENDGRID_BASE_URL", cfg.Email.BaseURL)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = getEnv("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Geo.LookupURL = getEnv("GEO_LOOKUP_URL", cfg.Geo.LookupURL)
	cfg.Geo.TimeoutSeconds = getEnvInt("GEO_TIMEOUT_SECONDS", cfg.Geo.TimeoutSeconds)

	cfg.Reminders.IntervalMinutes = getEnvInt("REMINDER_INTERVAL_MINUTES", cfg.Reminders.IntervalMinutes)
	cfg.Reminders.LeadHours = getEnvInt("APPOINTMENT_REMINDER_LEAD_HOURS", cfg.Reminders.LeadHours)

	cfg.Emergency.SevereSymptomAutoAlert = getEnvBool("SEVERE_SYMPTOM_AUTO_ALERT", cfg.Emergency.SevereSymptomAutoAlert)
	cfg.Emergency.CooldownMinutes = getEnvInt("SEVERE_SYMPTOM_COOLDOWN_MINUTES", cfg.Emergency.CooldownMinutes)
}

func (cfg *Config) validate() error {
	switch cfg.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.Database.Path) == "" {
			return errors.New("database path is required for sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Database.URL) == "" {
			return errors.New("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	switch cfg.SMS.Provider {
	case SMSProviderTermii, SMSProviderTwilio, SMSProviderNone:
	default:
		return fmt.Errorf("unsupported sms provider %q", cfg.SMS.Provider)
	}
	return nil
}

// ResolveSecretKey rejects empty, placeholder and short signing secrets.
func (cfg Config) ResolveSecretKey() (string, error) {
	secret := strings.TrimSpace(cfg.Server.SecretKey)
	if secret == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return "", errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secret, nil
}

func (cfg Config) Location() *time.Location {
	location, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

func (cfg Config) GeoTimeout() time.Duration {
	if cfg.Geo.TimeoutSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(cfg.Geo.TimeoutSeconds) * time.Second
}

func (cfg Config) ReminderInterval() time.Duration {
	if cfg.Reminders.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(cfg.Reminders.IntervalMinutes) * time.Minute
}

func (cfg Config) ReminderLead() time.Duration {
	if cfg.Reminders.LeadHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(cfg.Reminders.LeadHours) * time.Hour
}

func (cfg Config) SevereSymptomCooldown() time.Duration {
	if cfg.Emergency.CooldownMinutes < 0 {
		return 0
	}
	return time.Duration(cfg.Emergency.CooldownMinutes) * time.Minute
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

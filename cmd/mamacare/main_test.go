package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/mamacare/internal/api"
	"github.com/terraincognita07/mamacare/internal/assistant"
	"github.com/terraincognita07/mamacare/internal/config"
	"github.com/terraincognita07/mamacare/internal/db"
	"github.com/terraincognita07/mamacare/internal/i18n"
	"github.com/terraincognita07/mamacare/internal/logger"
)

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("")
	if err != nil {
		t.Fatalf("expected default port, got error: %v", err)
	}
	if port != "8080" {
		t.Fatalf("expected default port 8080, got %q", port)
	}

	port, err = resolvePort(" 9090 ")
	if err != nil {
		t.Fatalf("expected valid port, got error: %v", err)
	}
	if port != "9090" {
		t.Fatalf("expected port 9090, got %q", port)
	}

	for _, raw := range []string{"0", "70000", "not-a-number"} {
		if _, err := resolvePort(raw); err == nil {
			t.Fatalf("expected invalid port %q to fail", raw)
		}
	}
}

func TestCORSMiddlewareConfigAllowsCredentialsForListedOrigins(t *testing.T) {
	cfg := corsMiddlewareConfig([]string{"https://app.mamacare.ng", "http://localhost:5173"})
	if cfg.AllowOrigins != "https://app.mamacare.ng,http://localhost:5173" {
		t.Fatalf("unexpected allowed origins %q", cfg.AllowOrigins)
	}
	if !cfg.AllowCredentials {
		t.Fatal("expected credentials to be allowed for the session cookie")
	}
	if !strings.Contains(cfg.AllowHeaders, "Authorization") {
		t.Fatalf("expected Authorization header to be allowed, got %q", cfg.AllowHeaders)
	}
}

func TestBuildIntegrationsWithoutCredentialsDisablesOptionalFeatures(t *testing.T) {
	cfg := config.Defaults()
	cfg.SMS.Provider = config.SMSProviderTermii

	messages, err := i18n.NewManager("en")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	integrations, closeIntegrations := buildIntegrations(cfg, logger.Nop(), messages)
	defer closeIntegrations()

	if integrations.SMS != nil {
		t.Fatal("expected sms to stay disabled without a Termii key")
	}
	if integrations.Email != nil {
		t.Fatal("expected email alerts to stay disabled without a SendGrid key")
	}
	if integrations.Locator != nil {
		t.Fatal("expected ip lookup to stay disabled without a lookup url")
	}
	if integrations.Broadcast == nil {
		t.Fatal("expected a no-op broadcast publisher")
	}
	replier, ok := integrations.Assistant.(*assistant.Assistant)
	if !ok || replier.Configured() {
		t.Fatal("expected an unconfigured assistant that answers with fallbacks")
	}
}

func TestNewAppServesHealthAndJSONNotFound(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "mamacare-main-test.db"), logger.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	messages, err := i18n.NewManager("en")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	integrations, closeIntegrations := buildIntegrations(config.Defaults(), logger.Nop(), messages)
	defer closeIntegrations()

	handler, err := api.NewHandler(api.NewDependencies(database, integrations), api.Options{
		SecretKey: "0123456789abcdef0123456789abcdef",
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}
	app := newApp(handler, []string{"https://app.mamacare.ng"})

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", response.StatusCode)
	}
	if response.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	response, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	if err != nil {
		t.Fatalf("GET /missing failed: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", response.StatusCode)
	}
}

func TestPrintMigrationStatus(t *testing.T) {
	out := &bytes.Buffer{}
	printMigrationStatus(out, []db.MigrationStatus{
		{Version: "001", Name: "init", Applied: true},
		{Version: "002", Name: "babies", Applied: false},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two status lines, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "applied") || !strings.HasPrefix(lines[1], "pending") {
		t.Fatalf("unexpected status output %q", out.String())
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "migrate", "reset-password"} {
		if command, _, err := root.Find([]string{name}); err != nil || command.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, command, err)
		}
	}

	resetCommand, _, _ := root.Find([]string{"reset-password"})
	if resetCommand.Flags().Lookup("email") == nil || resetCommand.Flags().Lookup("interactive") == nil {
		t.Fatal("expected reset-password to expose --email and --interactive")
	}
}

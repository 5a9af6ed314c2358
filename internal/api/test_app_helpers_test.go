package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/assistant"
	"github.com/terraincognita07/mamacare/internal/db"
	"github.com/terraincognita07/mamacare/internal/i18n"
	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/places"
	"github.com/terraincognita07/mamacare/internal/sms"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

type recordingSMS struct {
	mu       sync.Mutex
	err      error
	requests []sms.Request
}

func (sender *recordingSMS) Send(_ context.Context, request sms.Request) (sms.Result, error) {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.requests = append(sender.requests, request)

	total := len(request.EmergencyContacts)
	if request.PhoneNumber != "" {
		total++
	}
	if total == 0 {
		return sms.Result{}, sms.ErrInvalidRequest
	}
	if sender.err != nil {
		return sms.Result{TotalContacts: total, Results: []sms.RecipientResult{}}, sender.err
	}
	return sms.Result{Success: true, MessagesSent: total, TotalContacts: total, Results: []sms.RecipientResult{}}, nil
}

func (sender *recordingSMS) count() int {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	return len(sender.requests)
}

type stubAssistant struct {
	answer string
	err    error
}

func (stub *stubAssistant) Reply(_ context.Context, request assistant.Request) (assistant.Response, error) {
	if strings.TrimSpace(request.Message) == "" {
		return assistant.Response{}, assistant.ErrInvalidRequest
	}
	if stub.err != nil {
		return assistant.Response{Error: stub.err.Error(), FallbackResponse: assistant.FallbackResponse}, stub.err
	}
	return assistant.Response{Response: stub.answer, Success: true}, nil
}

type stubPlaces struct {
	results []places.Place
	radius  int
}

func (stub *stubPlaces) Nearby(_ context.Context, _ float64, _ float64, radius int) ([]places.Place, error) {
	stub.radius = radius
	return stub.results, nil
}

type testEnv struct {
	app       *fiber.App
	sms       *recordingSMS
	assistant *stubAssistant
}

func newTestApp(t *testing.T) *testEnv {
	t.Helper()
	return newTestAppWith(t, nil)
}

// newTestAppWith builds the full stack on a temp SQLite file. configure may
// adjust the integrations before the handler is built.
func newTestAppWith(t *testing.T, configure func(*Integrations)) *testEnv {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "mamacare-api-test.db"), logger.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	i18nManager, err := i18n.NewManager("en")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	env := &testEnv{sms: &recordingSMS{}, assistant: &stubAssistant{answer: "Drink water and rest."}}
	integrations := Integrations{
		SMS:         env.sms,
		Assistant:   env.assistant,
		I18n:        i18nManager,
		Log:         logger.Nop(),
		Location:    time.UTC,
		CountryCode: "234",
		GeoTimeout:  50 * time.Millisecond,
	}
	if configure != nil {
		configure(&integrations)
	}

	handler, err := NewHandler(NewDependencies(database, integrations), Options{
		SecretKey: testSecretKey,
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	env.app = app
	return env
}

func doJSON(t *testing.T, app *fiber.App, method string, path string, cookie string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("%s %s read body failed: %v", method, path, err)
	}
	return response, payload
}

func expectStatus(t *testing.T, response *http.Response, body []byte, expected int) {
	t.Helper()
	if response.StatusCode != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, response.StatusCode, string(body))
	}
}

func decodeJSON(t *testing.T, body []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("decode response %q: %v", string(body), err)
	}
}

func readAPIError(t *testing.T, body []byte) string {
	t.Helper()
	payload := map[string]any{}
	decodeJSON(t, body, &payload)
	message, _ := payload["error"].(string)
	return message
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// registerUser signs up a mother and returns the session cookie header.
func registerUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	response, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":        email,
		"password":     "StrongPass1",
		"display_name": "Ada",
		"phone":        "08031234567",
	})
	expectStatus(t, response, body, fiber.StatusCreated)

	cookie := responseCookie(response.Cookies(), sessionCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie after registration")
	}
	return sessionCookieName + "=" + cookie.Value
}

package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/mamacare/internal/config"
	"github.com/terraincognita07/mamacare/internal/httpx"
)

func TestTermiiGatewaySendsJSONPayload(t *testing.T) {
	var captured termiiSendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sms/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message_id":"msg-1","message":"Successfully Sent"}`))
	}))
	defer server.Close()

	gateway, err := NewTermiiGateway(nil, TermiiConfig{APIKey: "key", SenderID: "MamaCare", BaseURL: server.URL})
	require.NoError(t, err)

	messageID, err := gateway.Send(context.Background(), "+2348031234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", messageID)
	assert.Equal(t, "2348031234567", captured.To)
	assert.Equal(t, "MamaCare", captured.From)
	assert.Equal(t, "hello", captured.SMS)
	assert.Equal(t, "key", captured.APIKey)
	assert.Equal(t, "plain", captured.Type)
}

func TestTermiiGatewayRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"message_id":"msg-2"}`))
	}))
	defer server.Close()

	gateway, err := NewTermiiGateway(nil, TermiiConfig{APIKey: "key", BaseURL: server.URL, MaxRetries: 1})
	require.NoError(t, err)

	messageID, err := gateway.Send(context.Background(), "+2348031234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, "msg-2", messageID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestTermiiGatewayDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer server.Close()

	gateway, err := NewTermiiGateway(nil, TermiiConfig{APIKey: "key", BaseURL: server.URL, MaxRetries: 3})
	require.NoError(t, err)

	_, err = gateway.Send(context.Background(), "+2348031234567", "hello")
	var statusErr *httpx.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestTwilioGatewayPostsFormWithBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+2348031234567", r.PostForm.Get("To"))
		assert.Equal(t, "+15550001111", r.PostForm.Get("From"))
		assert.Equal(t, "hello", r.PostForm.Get("Body"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer server.Close()

	gateway, err := NewTwilioGateway(nil, TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		FromNumber: "+15550001111",
		BaseURL:    server.URL,
	})
	require.NoError(t, err)

	sid, err := gateway.Send(context.Background(), "+2348031234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, "SM1", sid)
}

func TestTwilioGatewaySurfacesAPIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer server.Close()

	gateway, err := NewTwilioGateway(nil, TwilioConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+1555", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = gateway.Send(context.Background(), "+1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=21211")
}

func TestNewGatewaySelectsProvider(t *testing.T) {
	gateway, err := NewGateway(nil, config.SMSConfig{Provider: config.SMSProviderNone})
	require.NoError(t, err)
	assert.Nil(t, gateway)

	_, err = NewGateway(nil, config.SMSConfig{Provider: config.SMSProviderTermii})
	assert.True(t, errors.Is(err, ErrNotConfigured))

	gateway, err = NewGateway(nil, config.SMSConfig{Provider: config.SMSProviderTwilio, TwilioAccountSID: "AC", TwilioAuthToken: "t", TwilioFromNumber: "+1"})
	require.NoError(t, err)
	assert.Equal(t, "twilio", gateway.Name())

	_, err = NewGateway(nil, config.SMSConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

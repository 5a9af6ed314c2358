package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearbyWithoutKeyIsNotConfigured(t *testing.T) {
	_, err := New(nil, Config{}).Nearby(context.Background(), 6.5, 3.3, 0)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestNearbyMapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/nearbysearch/json", r.URL.Path)
		assert.Equal(t, "6.500000,3.300000", r.URL.Query().Get("location"))
		assert.Equal(t, "5000", r.URL.Query().Get("radius"))
		assert.Equal(t, "hospital", r.URL.Query().Get("type"))
		assert.Equal(t, "maps-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"place_id": "p1",
				"name": "General Hospital",
				"vicinity": "Marina, Lagos",
				"rating": 4.1,
				"geometry": {"location": {"lat": 6.45, "lng": 3.39}},
				"opening_hours": {"open_now": true},
				"types": ["hospital", "health"]
			}]
		}`))
	}))
	defer server.Close()

	places, err := New(nil, Config{APIKey: "maps-key", BaseURL: server.URL}).Nearby(context.Background(), 6.5, 3.3, 0)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "General Hospital", places[0].Name)
	assert.Equal(t, "Marina, Lagos", places[0].Address)
	require.NotNil(t, places[0].OpenNow)
	assert.True(t, *places[0].OpenNow)
}

func TestNearbyClampsRadius(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50000", r.URL.Query().Get("radius"))
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	places, err := New(nil, Config{APIKey: "k", BaseURL: server.URL}).Nearby(context.Background(), 6.5, 3.3, 900000)
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestNearbyDeniedStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
	}))
	defer server.Close()

	_, err := New(nil, Config{APIKey: "k", BaseURL: server.URL}).Nearby(context.Background(), 6.5, 3.3, 100)
	assert.True(t, errors.Is(err, ErrLookupFailed))
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestNearbyRejectsBadCoordinates(t *testing.T) {
	_, err := New(nil, Config{APIKey: "k"}).Nearby(context.Background(), 91, 3.3, 100)
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

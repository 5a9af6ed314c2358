// Package places finds nearby healthcare facilities through the Google
// Places Nearby Search API.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/httpx"
	"github.com/terraincognita07/mamacare/internal/logger"
)

var (
	ErrNotConfigured = errors.New("maps api key is not configured")
	ErrInvalidQuery  = errors.New("invalid nearby query")
	ErrLookupFailed  = errors.New("nearby lookup failed")
)

const (
	defaultBaseURL = "https://maps.googleapis.com"
	DefaultRadius  = 5000
	MaxRadius      = 50000
)

type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type Place struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Rating    float64  `json:"rating,omitempty"`
	OpenNow   *bool    `json:"open_now,omitempty"`
	Types     []string `json:"types,omitempty"`
}

type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) *Client {
	if log == nil {
		log = logger.Nop()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		log:        log.With("client", "GooglePlaces"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (client *Client) Configured() bool {
	return client != nil && client.cfg.APIKey != ""
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string  `json:"place_id"`
		Name     string  `json:"name"`
		Vicinity string  `json:"vicinity"`
		Rating   float64 `json:"rating"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		OpeningHours *struct {
			OpenNow bool `json:"open_now"`
		} `json:"opening_hours"`
		Types []string `json:"types"`
	} `json:"results"`
}

// Nearby lists hospitals within radius metres of (latitude, longitude).
// A radius <= 0 uses DefaultRadius; larger than MaxRadius is clamped.
func (client *Client) Nearby(ctx context.Context, latitude float64, longitude float64, radius int) ([]Place, error) {
	if !client.Configured() {
		return nil, ErrNotConfigured
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidQuery)
	}
	if radius <= 0 {
		radius = DefaultRadius
	}
	if radius > MaxRadius {
		radius = MaxRadius
	}

	query := url.Values{}
	query.Set("location", strconv.FormatFloat(latitude, 'f', 6, 64)+","+strconv.FormatFloat(longitude, 'f', 6, 64))
	query.Set("radius", strconv.Itoa(radius))
	query.Set("type", "hospital")
	query.Set("key", client.cfg.APIKey)
	endpoint := client.cfg.BaseURL + "/maps/api/place/nearbysearch/json?" + query.Encode()

	var out nearbyResponse
	err := httpx.Retry(ctx, client.cfg.MaxRetries, time.Second, func() (*http.Response, error) {
		return client.fetch(ctx, endpoint, &out)
	}, func(attempt int, sleep time.Duration, err error) {
		client.log.Warn("Places request retrying", "attempt", attempt, "sleep", sleep.String(), "error", err.Error())
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	switch out.Status {
	case "OK", "ZERO_RESULTS":
	default:
		message := strings.TrimSpace(out.ErrorMessage)
		if message == "" {
			message = out.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, message)
	}

	places := make([]Place, 0, len(out.Results))
	for _, result := range out.Results {
		place := Place{
			ID:        result.PlaceID,
			Name:      result.Name,
			Address:   result.Vicinity,
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
			Rating:    result.Rating,
			Types:     result.Types,
		}
		if result.OpeningHours != nil {
			openNow := result.OpeningHours.OpenNow
			place.OpenNow = &openNow
		}
		places = append(places, place)
	}
	return places, nil
}

func (client *Client) fetch(ctx context.Context, endpoint string, out *nearbyResponse) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &httpx.StatusError{Service: "places", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp, fmt.Errorf("places decode error: %w", err)
	}
	return resp, nil
}

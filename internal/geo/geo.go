// Package geo resolves a best-effort location for emergency alerts.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

var ErrUnavailable = errors.New("location unavailable")

const DefaultLocation = "Location unavailable"

type Position struct {
	Latitude  float64
	Longitude float64
	City      string
	Country   string
}

// String renders the position for an SMS body: place name when known,
// followed by a maps link for the coordinates.
func (position Position) String() string {
	coordinates := FormatCoordinates(position.Latitude, position.Longitude)
	place := strings.Join(nonEmpty(position.City, position.Country), ", ")
	if place == "" {
		return coordinates
	}
	return place + " " + coordinates
}

// FormatCoordinates renders lat/lng the way alert messages carry them.
func FormatCoordinates(latitude float64, longitude float64) string {
	return fmt.Sprintf("(%.5f, %.5f) https://maps.google.com/?q=%.5f,%.5f", latitude, longitude, latitude, longitude)
}

func ValidCoordinates(latitude float64, longitude float64) bool {
	return latitude >= -90 && latitude <= 90 && longitude >= -180 && longitude <= 180 && (latitude != 0 || longitude != 0)
}

type Locator interface {
	Locate(ctx context.Context, clientIP string) (Position, error)
}

// IPLocator asks an ipapi-style JSON endpoint where a client address is.
// A "{ip}" placeholder in the lookup URL is replaced by the address;
// otherwise it is sent as the ip query parameter. An empty lookup URL
// disables it.
type IPLocator struct {
	lookupURL  string
	httpClient *http.Client
}

func NewIPLocator(lookupURL string, timeout time.Duration) *IPLocator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &IPLocator{
		lookupURL:  strings.TrimSpace(lookupURL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ipLookupResponse struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	City        string  `json:"city"`
	CountryName string  `json:"country_name"`
}

func (locator *IPLocator) Locate(ctx context.Context, clientIP string) (Position, error) {
	if locator == nil || locator.lookupURL == "" {
		return Position{}, ErrUnavailable
	}
	address, ok := publicAddress(clientIP)
	if !ok {
		return Position{}, fmt.Errorf("%w: no public client address", ErrUnavailable)
	}
	lookupURL, err := locator.urlFor(address)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := locator.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("%w: lookup status %d", ErrUnavailable, resp.StatusCode)
	}

	var out ipLookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ValidCoordinates(out.Latitude, out.Longitude) {
		return Position{}, fmt.Errorf("%w: lookup returned no coordinates", ErrUnavailable)
	}
	return Position{
		Latitude:  out.Latitude,
		Longitude: out.Longitude,
		City:      strings.TrimSpace(out.City),
		Country:   strings.TrimSpace(out.CountryName),
	}, nil
}

func (locator *IPLocator) urlFor(address netip.Addr) (string, error) {
	if strings.Contains(locator.lookupURL, "{ip}") {
		return strings.ReplaceAll(locator.lookupURL, "{ip}", url.PathEscape(address.String())), nil
	}
	parsed, err := url.Parse(locator.lookupURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("ip", address.String())
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func publicAddress(raw string) (netip.Addr, bool) {
	address, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, false
	}
	address = address.Unmap()
	if address.IsLoopback() || address.IsPrivate() || address.IsUnspecified() || address.IsLinkLocalUnicast() {
		return netip.Addr{}, false
	}
	return address, true
}

// Resolve returns the best location string available within timeout, in
// this order: client coordinates, the place the caller typed, the
// client's IP position, DefaultLocation.
func Resolve(ctx context.Context, locator Locator, timeout time.Duration, latitude *float64, longitude *float64, typed string, clientIP string) string {
	if latitude != nil && longitude != nil && ValidCoordinates(*latitude, *longitude) {
		return FormatCoordinates(*latitude, *longitude)
	}
	if typed = strings.TrimSpace(typed); typed != "" {
		return typed
	}
	if locator == nil {
		return DefaultLocation
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	position, err := locator.Locate(ctx, clientIP)
	if err != nil {
		return DefaultLocation
	}
	return position.String()
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			out = append(out, value)
		}
	}
	return out
}

package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrDenied reports that no position is available. Callers treat it the same
// way as a browser refusing the geolocation prompt.
var ErrDenied = errors.New("geolocation denied")

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

type StaticLocator struct {
	coords Coordinates
}

func NewStaticLocator(latitude, longitude float64) *StaticLocator {
	return &StaticLocator{coords: Coordinates{Latitude: latitude, Longitude: longitude}}
}

func (l *StaticLocator) Locate(ctx context.Context) (Coordinates, error) {
	return l.coords, nil
}

type DeniedLocator struct{}

func (DeniedLocator) Locate(ctx context.Context) (Coordinates, error) {
	return Coordinates{}, ErrDenied
}

const DefaultIPLookupURL = "http://ip-api.com/json/"

// IPLocator resolves the caller's public IP to coordinates.
type IPLocator struct {
	url    string
	client *http.Client
}

func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	if url == "" {
		url = DefaultIPLookupURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IPLocator{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: ip lookup request: %v", ErrDenied, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: ip lookup failed: %v", ErrDenied, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Coordinates{}, fmt.Errorf("%w: ip lookup bad status: %s", ErrDenied, resp.Status)
	}

	var payload ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Coordinates{}, fmt.Errorf("%w: ip lookup decode: %v", ErrDenied, err)
	}
	if payload.Status != "success" {
		return Coordinates{}, fmt.Errorf("%w: ip lookup status %q %s", ErrDenied, payload.Status, payload.Message)
	}

	return Coordinates{Latitude: payload.Lat, Longitude: payload.Lon}, nil
}

// New picks a locator by provider name: "ip", "static" or "none".
func New(provider, url string, latitude, longitude float64, timeout time.Duration) (Locator, error) {
	switch provider {
	case "", "ip":
		return NewIPLocator(url, timeout), nil
	case "static":
		return NewStaticLocator(latitude, longitude), nil
	case "none":
		return DeniedLocator{}, nil
	default:
		return nil, fmt.Errorf("unknown geolocation provider %q", provider)
	}
}

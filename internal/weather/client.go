package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL      = "http://127.0.0.1:8000/api/weather/"
	DefaultErrorMessage = "Failed to fetch weather data"
)

// FetchError is the single failure category surfaced to the user. Message
// is what the widget displays; Err keeps the underlying cause for logs.
type FetchError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Message extracts the user-visible text from any error returned by Fetch.
func Message(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return DefaultErrorMessage
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL builds the request address for q.
func (c *Client) URL(q Query) (string, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("weather base url: %w", err)
	}

	query := url.Values{}
	if q.ByCity {
		query.Set("city", q.City)
	} else {
		query.Set("lat", formatCoord(q.Latitude))
		query.Set("lon", formatCoord(q.Longitude))
	}
	endpoint.RawQuery = query.Encode()

	return endpoint.String(), nil
}

func (c *Client) Fetch(ctx context.Context, q Query) (*Report, error) {
	endpoint, err := c.URL(q)
	if err != nil {
		return nil, &FetchError{Message: DefaultErrorMessage, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Message: DefaultErrorMessage, Err: fmt.Errorf("weather request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Message: DefaultErrorMessage, Err: fmt.Errorf("weather request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var payload reportPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Message: DefaultErrorMessage, StatusCode: resp.StatusCode, Err: fmt.Errorf("weather decode: %w", err)}
	}
	if payload.Current == nil {
		return nil, &FetchError{Message: DefaultErrorMessage, StatusCode: resp.StatusCode, Err: errors.New("weather current data missing")}
	}

	entries := make([]ForecastEntry, 0, len(payload.Forecast.List))
	for _, item := range payload.Forecast.List {
		entries = append(entries, item.entry())
	}

	return &Report{
		Current:  payload.Current.snapshot(),
		Forecast: FilterNoon(entries),
	}, nil
}

func statusError(resp *http.Response) *FetchError {
	fe := &FetchError{
		Message:    DefaultErrorMessage,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("weather bad status: %s", resp.Status),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fe
	}
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fe
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		fe.Message = msg
	}
	return fe
}

// PingResult describes one probe of the backend.
type PingResult struct {
	URL        string
	StatusCode int
	Latency    time.Duration
	Report     *Report
}

// Ping fetches q once and reports how the backend answered.
func (c *Client) Ping(ctx context.Context, q Query) (*PingResult, error) {
	endpoint, err := c.URL(q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := c.Fetch(ctx, q)
	result := &PingResult{
		URL:     endpoint,
		Latency: time.Since(start),
		Report:  report,
	}
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			result.StatusCode = fe.StatusCode
		}
		return result, err
	}
	result.StatusCode = http.StatusOK
	return result, nil
}

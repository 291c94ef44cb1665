package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/AnamolZ/weatherly/internal/weather"
	"github.com/AnamolZ/weatherly/internal/widget"

	"github.com/gin-gonic/gin"
)

type stubFetcher struct {
	queries []weather.Query
	fail    map[string]string
}

func (f *stubFetcher) Fetch(ctx context.Context, q weather.Query) (*weather.Report, error) {
	f.queries = append(f.queries, q)
	if msg, ok := f.fail[q.City]; ok {
		return nil, &weather.FetchError{Message: msg, StatusCode: http.StatusNotFound}
	}
	name := q.City
	if !q.ByCity {
		name = "Here"
	}
	return &weather.Report{
		Current: weather.Snapshot{Name: name, Country: "JP", Temperature: 0, Humidity: 70, WindSpeed: 2.5, Description: "few clouds"},
		Forecast: []weather.ForecastEntry{
			{Timestamp: "2024-05-01 12:00:00", Temperature: 100, Humidity: 30, Description: "clear sky"},
		},
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *stubFetcher, *widget.View) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &stubFetcher{fail: map[string]string{"Atlantis": "City not found"}}
	view := widget.NewView(widget.ViewConfig{Fetcher: f})
	srv := NewServer(ServerConfig{View: view})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, f, view
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func getBody(t *testing.T, target string) string {
	t.Helper()
	resp, err := http.Get(target)
	if err != nil {
		t.Fatalf("GET %s failed: %v", target, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s failed: %v", target, err)
	}
	return string(body)
}

func TestWidgetPageBeforeFetch(t *testing.T) {
	ts, _, _ := newTestServer(t)

	body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, "Enter city name") {
		t.Errorf("search box missing")
	}
	if strings.Contains(body, "Show 5-Day Forecast") {
		t.Errorf("no mode should render before the first fetch")
	}
}

func TestSearchFormFlow(t *testing.T) {
	ts, f, view := newTestServer(t)
	client := noRedirectClient()

	resp, err := client.PostForm(ts.URL+"/search", url.Values{"city": {"Tokyo"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if q := f.queries[0]; !q.ByCity || q.City != "Tokyo" {
		t.Errorf("unexpected query %+v", q)
	}
	if view.State().SearchText != "" {
		t.Errorf("search text not cleared")
	}

	body := getBody(t, ts.URL+"/")
	for _, want := range []string{"Tokyo, JP", "0°C", "°F", "Show 5-Day Forecast", "Wind Speed", "2.5 m/s"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	resp, _ = client.PostForm(ts.URL+"/unit", nil)
	resp.Body.Close()
	resp, _ = client.PostForm(ts.URL+"/view", nil)
	resp.Body.Close()

	body = getBody(t, ts.URL+"/")
	for _, want := range []string{"5-Day Forecast", "Back to Current Weather", "May 01", "212°F", "30%"} {
		if !strings.Contains(body, want) {
			t.Errorf("forecast page missing %q", want)
		}
	}
	if strings.Contains(body, "Tokyo, JP") {
		t.Errorf("current panel should be hidden in forecast mode")
	}
}

func TestSearchAPIFailureKeepsState(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", strings.NewReader(`{"city":"Tokyo"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/v1/search", "application/json", strings.NewReader(`{"city":"Atlantis"}`))
	if err != nil {
		t.Fatal(err)
	}
	var failed struct {
		Error string       `json:"error"`
		State widget.State `json:"state"`
	}
	json.NewDecoder(resp.Body).Decode(&failed)
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway || failed.Error != "City not found" {
		t.Errorf("unexpected failure response %d %+v", resp.StatusCode, failed)
	}
	if failed.State.Current == nil || failed.State.Current.Name != "Tokyo" {
		t.Errorf("snapshot should be unchanged, got %+v", failed.State.Current)
	}

	body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, "City not found") || !strings.Contains(body, "Tokyo, JP") {
		t.Errorf("page should show the error and the previous snapshot")
	}
}

func TestToggleAPI(t *testing.T) {
	ts, f, _ := newTestServer(t)

	resp, _ := http.Post(ts.URL+"/api/v1/unit/toggle", "application/json", nil)
	var unit struct {
		Unit weather.Unit `json:"unit"`
	}
	json.NewDecoder(resp.Body).Decode(&unit)
	resp.Body.Close()
	if unit.Unit != weather.Fahrenheit {
		t.Errorf("unit = %s", unit.Unit)
	}

	resp, _ = http.Post(ts.URL+"/api/v1/view/toggle", "application/json", nil)
	var mode struct {
		Mode widget.ViewMode `json:"view_mode"`
	}
	json.NewDecoder(resp.Body).Decode(&mode)
	resp.Body.Close()
	if mode.Mode != widget.ModeForecast {
		t.Errorf("mode = %s", mode.Mode)
	}

	if len(f.queries) != 0 {
		t.Errorf("toggles must not fetch, got %d queries", len(f.queries))
	}
}

func TestRefreshAndHealth(t *testing.T) {
	ts, f, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/refresh", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if q := f.queries[0]; q.City != widget.DefaultFallbackCity {
		t.Errorf("refresh without history should fall back, got %+v", q)
	}

	var health map[string]interface{}
	resp, _ = http.Get(ts.URL + "/health")
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health["status"] != "healthy" || health["has_weather"] != true {
		t.Errorf("unexpected health %+v", health)
	}
}

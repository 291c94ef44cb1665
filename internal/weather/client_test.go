package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func successBody() map[string]interface{} {
	list := []map[string]interface{}{}
	for _, e := range fiveDayList() {
		list = append(list, map[string]interface{}{
			"dt_txt":  e.Timestamp,
			"main":    map[string]interface{}{"temp": e.Temperature, "humidity": 60},
			"weather": []map[string]string{{"description": "scattered clouds"}},
		})
	}
	return map[string]interface{}{
		"current": map[string]interface{}{
			"name":    "Kathmandu",
			"sys":     map[string]string{"country": "NP"},
			"main":    map[string]interface{}{"temp": 21.4, "humidity": 55},
			"wind":    map[string]float64{"speed": 3.6},
			"weather": []map[string]string{{"description": "clear sky"}},
		},
		"forecast": map[string]interface{}{"list": list},
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *[]url.Values) {
	t.Helper()
	var queries []url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/api/weather/", time.Second), &queries
}

func TestFetchByCity(t *testing.T) {
	client, queries := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(successBody())
	})

	report, err := client.Fetch(context.Background(), ByCity("Kathmandu"))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	q := (*queries)[0]
	if q.Get("city") != "Kathmandu" || q.Has("lat") {
		t.Errorf("unexpected query %v", q)
	}

	want := Snapshot{Name: "Kathmandu", Country: "NP", Temperature: 21.4, Humidity: 55, WindSpeed: 3.6, Description: "clear sky"}
	if report.Current != want {
		t.Errorf("current = %+v, want %+v", report.Current, want)
	}
	if len(report.Forecast) != 5 {
		t.Fatalf("forecast has %d entries, want 5", len(report.Forecast))
	}
	if report.Forecast[0].Temperature != 12 || report.Forecast[0].Description != "scattered clouds" {
		t.Errorf("unexpected first entry %+v", report.Forecast[0])
	}
}

func TestFetchByCoordinates(t *testing.T) {
	client, queries := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(successBody())
	})

	if _, err := client.Fetch(context.Background(), ByCoordinates(27.7172, 85.324)); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	q := (*queries)[0]
	if q.Get("lat") != "27.7172" || q.Get("lon") != "85.324" || q.Has("city") {
		t.Errorf("unexpected query %v", q)
	}
}

func TestFetchEmptyCityIsPassedThrough(t *testing.T) {
	client, queries := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"City or coordinates required"}`)
	})

	_, err := client.Fetch(context.Background(), ByCity(""))
	if Message(err) != "City or coordinates required" {
		t.Errorf("message = %q", Message(err))
	}
	q := (*queries)[0]
	if !q.Has("city") || q.Get("city") != "" {
		t.Errorf("expected empty city parameter, got %v", q)
	}
}

func TestFetchErrorBody(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"City not found"}`)
	})

	_, err := client.Fetch(context.Background(), ByCity("Atlantis"))
	fe, ok := err.(*FetchError)
	if !ok {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Message != "City not found" || fe.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected error %+v", fe)
	}
}

func TestFetchUnparseableErrorBody(t *testing.T) {
	for name, body := range map[string]string{
		"html":  "<html>bad gateway</html>",
		"empty": "",
		"blank": `{"error":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				fmt.Fprint(w, body)
			})
			_, err := client.Fetch(context.Background(), ByCity("Tokyo"))
			if got := Message(err); got != DefaultErrorMessage {
				t.Errorf("message = %q, want %q", got, DefaultErrorMessage)
			}
		})
	}
}

func TestFetchMalformedSuccessBody(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"forecast":{"list":[]}}`)
	})
	_, err := client.Fetch(context.Background(), ByCity("Tokyo"))
	if Message(err) != DefaultErrorMessage {
		t.Errorf("message = %q", Message(err))
	}
}

func TestFetchNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	client := NewClient(addr, time.Second)
	_, err := client.Fetch(context.Background(), ByCity("Tokyo"))
	if err == nil {
		t.Fatal("expected error")
	}
	if Message(err) != DefaultErrorMessage {
		t.Errorf("message = %q", Message(err))
	}
}

func TestPing(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(successBody())
	})
	res, err := client.Ping(context.Background(), ByCity("Kathmandu"))
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if res.StatusCode != http.StatusOK || res.Report == nil {
		t.Errorf("unexpected ping result %+v", res)
	}
}

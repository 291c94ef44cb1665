package weather

import (
	"context"
	"strconv"
)

// Fetcher retrieves a weather report for a single query.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (*Report, error)
}

// Query addresses a request either by city name or by coordinates.
type Query struct {
	City      string  `json:"city,omitempty"`
	ByCity    bool    `json:"by_city"`
	Latitude  float64 `json:"lat,omitempty"`
	Longitude float64 `json:"lon,omitempty"`
}

func ByCity(name string) Query {
	return Query{City: name, ByCity: true}
}

func ByCoordinates(lat, lon float64) Query {
	return Query{Latitude: lat, Longitude: lon}
}

func (q Query) String() string {
	if q.ByCity {
		return "city=" + q.City
	}
	return "lat=" + formatCoord(q.Latitude) + "&lon=" + formatCoord(q.Longitude)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Snapshot is the current weather for one location at fetch time.
type Snapshot struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	Temperature float64 `json:"temperature_c"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed_ms"`
	Description string  `json:"description"`
}

// ForecastEntry is one forecast reading. Timestamp keeps the backend's
// "2006-01-02 15:04:05" text as-is.
type ForecastEntry struct {
	Timestamp   string  `json:"dt_txt"`
	Temperature float64 `json:"temperature_c"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
}

type Report struct {
	Current  Snapshot        `json:"current"`
	Forecast []ForecastEntry `json:"forecast"`
}

// Wire format of the backend response.

type conditionPayload struct {
	Description string `json:"description"`
}

type mainPayload struct {
	Temp     float64 `json:"temp"`
	Humidity int     `json:"humidity"`
}

type currentPayload struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main    mainPayload `json:"main"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []conditionPayload `json:"weather"`
}

type forecastItemPayload struct {
	DtTxt   string             `json:"dt_txt"`
	Main    mainPayload        `json:"main"`
	Weather []conditionPayload `json:"weather"`
}

type reportPayload struct {
	Current  *currentPayload `json:"current"`
	Forecast struct {
		List []forecastItemPayload `json:"list"`
	} `json:"forecast"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func firstDescription(conds []conditionPayload) string {
	if len(conds) == 0 {
		return ""
	}
	return conds[0].Description
}

func (p *currentPayload) snapshot() Snapshot {
	return Snapshot{
		Name:        p.Name,
		Country:     p.Sys.Country,
		Temperature: p.Main.Temp,
		Humidity:    p.Main.Humidity,
		WindSpeed:   p.Wind.Speed,
		Description: firstDescription(p.Weather),
	}
}

func (p forecastItemPayload) entry() ForecastEntry {
	return ForecastEntry{
		Timestamp:   p.DtTxt,
		Temperature: p.Main.Temp,
		Humidity:    p.Main.Humidity,
		Description: firstDescription(p.Weather),
	}
}

package widget

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/AnamolZ/weatherly/internal/geo"
	"github.com/AnamolZ/weatherly/internal/weather"
)

const (
	DefaultFallbackCity = "Kathmandu"
	EnterKey            = "Enter"
)

type ViewMode string

const (
	ModeCurrent  ViewMode = "current"
	ModeForecast ViewMode = "forecast"
)

// Preferences are the display settings that survive a restart.
type Preferences struct {
	Unit     weather.Unit
	Mode     ViewMode
	LastCity string
}

type PreferenceStore interface {
	LoadPreferences() (*Preferences, error)
	SavePreferences(p Preferences) error
}

type Publisher interface {
	Publish(snapshot *weather.Snapshot) error
}

// State is a copy of the view's UI state.
type State struct {
	Unit       weather.Unit            `json:"unit"`
	Current    *weather.Snapshot       `json:"current"`
	Forecast   []weather.ForecastEntry `json:"forecast"`
	Mode       ViewMode                `json:"view_mode"`
	SearchText string                  `json:"search_text"`
	Error      string                  `json:"error,omitempty"`
}

// FormatTemp renders a Celsius reading in the state's unit.
func (s State) FormatTemp(celsius float64) int {
	return weather.FormatTemp(celsius, s.Unit)
}

type View struct {
	fetcher      weather.Fetcher
	locator      geo.Locator
	store        PreferenceStore
	publisher    Publisher
	fallbackCity string
	verbose      bool

	mu        sync.RWMutex
	state     State
	lastQuery *weather.Query
	lastCity  string
	issued    uint64
	applied   uint64
}

type ViewConfig struct {
	Fetcher      weather.Fetcher
	Locator      geo.Locator
	Store        PreferenceStore
	Publisher    Publisher
	FallbackCity string
	Unit         weather.Unit
	Verbose      bool
}

func NewView(cfg ViewConfig) *View {
	locator := cfg.Locator
	if locator == nil {
		locator = geo.DeniedLocator{}
	}
	fallback := cfg.FallbackCity
	if fallback == "" {
		fallback = DefaultFallbackCity
	}
	unit := cfg.Unit
	if unit == "" {
		unit = weather.Celsius
	}

	v := &View{
		fetcher:      cfg.Fetcher,
		locator:      locator,
		store:        cfg.Store,
		publisher:    cfg.Publisher,
		fallbackCity: fallback,
		verbose:      cfg.Verbose,
		state: State{
			Unit:     unit,
			Forecast: []weather.ForecastEntry{},
			Mode:     ModeCurrent,
		},
	}
	v.restorePreferences()
	return v
}

func (v *View) restorePreferences() {
	if v.store == nil {
		return
	}
	prefs, err := v.store.LoadPreferences()
	if err != nil {
		log.Printf("Error loading preferences: %v", err)
		return
	}
	if prefs == nil {
		return
	}
	if prefs.Unit == weather.Celsius || prefs.Unit == weather.Fahrenheit {
		v.state.Unit = prefs.Unit
	}
	if prefs.Mode == ModeCurrent || prefs.Mode == ModeForecast {
		v.state.Mode = prefs.Mode
	}
	v.lastCity = prefs.LastCity
}

// Init runs the mount sequence: locate, then fetch by coordinates or fall
// back to the default city when no position is available.
func (v *View) Init(ctx context.Context) error {
	coords, err := v.locator.Locate(ctx)
	if err != nil {
		log.Printf("Geolocation unavailable, using %s: %v", v.fallbackCity, err)
		return v.FetchWeather(ctx, weather.ByCity(v.fallbackCity))
	}
	return v.FetchWeather(ctx, weather.ByCoordinates(coords.Latitude, coords.Longitude))
}

// FetchWeather issues one request for q. Snapshot and forecast are replaced
// together on success; on failure only the error message changes. A response
// is dropped if a fetch issued after it has already been applied.
func (v *View) FetchWeather(ctx context.Context, q weather.Query) error {
	if v.fetcher == nil {
		return errors.New("widget has no weather fetcher")
	}

	v.mu.Lock()
	v.issued++
	seq := v.issued
	v.mu.Unlock()

	report, err := v.fetcher.Fetch(ctx, q)

	v.mu.Lock()
	if seq < v.applied {
		v.mu.Unlock()
		if v.verbose {
			log.Printf("Discarding stale response for %s", q)
		}
		return err
	}
	v.applied = seq

	if err != nil {
		v.state.Error = weather.Message(err)
		v.mu.Unlock()
		cause := errors.Unwrap(err)
		if cause == nil {
			cause = err
		}
		log.Printf("Error fetching weather for %s: %v", q, cause)
		return err
	}

	current := report.Current
	v.state.Current = &current
	v.state.Forecast = append([]weather.ForecastEntry{}, report.Forecast...)
	v.state.Error = ""
	query := q
	v.lastQuery = &query
	if q.ByCity {
		v.lastCity = q.City
	}
	prefs := v.preferencesLocked()
	v.mu.Unlock()

	if v.verbose {
		log.Printf("Fetched %s: %s, %s %.1f°C %s", q, current.Name, current.Country, current.Temperature, current.Description)
	}

	v.savePreferences(prefs)
	if v.publisher != nil {
		if perr := v.publisher.Publish(&current); perr != nil {
			log.Printf("Error publishing snapshot: %v", perr)
		}
	}
	return nil
}

// Refresh repeats the last successful query, or runs Init if there is none.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.RLock()
	last := v.lastQuery
	v.mu.RUnlock()

	if last == nil {
		return v.Init(ctx)
	}
	return v.FetchWeather(ctx, *last)
}

func (v *View) SetSearchText(text string) {
	v.mu.Lock()
	v.state.SearchText = text
	v.mu.Unlock()
}

// HandleKeyPress submits the search box on Enter and clears it. The text is
// not validated; an empty box queries with an empty city.
func (v *View) HandleKeyPress(ctx context.Context, key string) error {
	if key != EnterKey {
		return nil
	}

	v.mu.Lock()
	city := v.state.SearchText
	v.state.SearchText = ""
	v.mu.Unlock()

	return v.FetchWeather(ctx, weather.ByCity(city))
}

// Search is the one-step form of typing text and pressing Enter.
func (v *View) Search(ctx context.Context, city string) error {
	v.SetSearchText(city)
	return v.HandleKeyPress(ctx, EnterKey)
}

func (v *View) ToggleUnit() weather.Unit {
	v.mu.Lock()
	v.state.Unit = v.state.Unit.Other()
	unit := v.state.Unit
	prefs := v.preferencesLocked()
	v.mu.Unlock()

	v.savePreferences(prefs)
	return unit
}

func (v *View) ToggleViewMode() ViewMode {
	v.mu.Lock()
	if v.state.Mode == ModeForecast {
		v.state.Mode = ModeCurrent
	} else {
		v.state.Mode = ModeForecast
	}
	mode := v.state.Mode
	prefs := v.preferencesLocked()
	v.mu.Unlock()

	v.savePreferences(prefs)
	return mode
}

func (v *View) FormatTemp(celsius float64) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return weather.FormatTemp(celsius, v.state.Unit)
}

func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()

	s := v.state
	if s.Current != nil {
		current := *s.Current
		s.Current = &current
	}
	s.Forecast = append([]weather.ForecastEntry{}, s.Forecast...)
	return s
}

func (v *View) preferencesLocked() Preferences {
	return Preferences{Unit: v.state.Unit, Mode: v.state.Mode, LastCity: v.lastCity}
}

func (v *View) savePreferences(p Preferences) {
	if v.store == nil {
		return
	}
	if err := v.store.SavePreferences(p); err != nil {
		log.Printf("Error saving preferences: %v", err)
	}
}

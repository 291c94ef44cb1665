package widget

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/AnamolZ/weatherly/internal/weather"
)

const (
	ShowForecastLabel = "Show 5-Day Forecast"
	ShowCurrentLabel  = "Back to Current Weather"
	SearchPlaceholder = "Enter city name"
)

// Screen is what a renderer draws for one State.
type Screen struct {
	SearchText  string
	Placeholder string
	Error       string
	HasWeather  bool
	ToggleLabel string
	Mode        ViewMode
	Current     *CurrentPanel
	Forecast    []ForecastRow
}

type CurrentPanel struct {
	Location        string
	UnitToggleLabel string
	Icon            weather.IconKind
	Temperature     string
	Description     string
	Humidity        string
	WindSpeed       string
}

type ForecastRow struct {
	Date        string
	Temperature string
	Icon        weather.IconKind
	Description string
	Humidity    string
}

func tempLabel(celsius float64, u weather.Unit) string {
	return fmt.Sprintf("%d%s", weather.FormatTemp(celsius, u), u.Symbol())
}

// NewScreen lays out s. Neither mode is filled in until a snapshot exists.
func NewScreen(s State) Screen {
	screen := Screen{
		SearchText:  s.SearchText,
		Placeholder: SearchPlaceholder,
		Error:       s.Error,
		Mode:        s.Mode,
	}
	if s.Current == nil {
		return screen
	}

	screen.HasWeather = true
	if s.Mode == ModeForecast {
		screen.ToggleLabel = ShowCurrentLabel
		for _, e := range s.Forecast {
			screen.Forecast = append(screen.Forecast, ForecastRow{
				Date:        weather.FormatForecastDate(e.Timestamp),
				Temperature: tempLabel(e.Temperature, s.Unit),
				Icon:        weather.SelectIcon(e.Description),
				Description: e.Description,
				Humidity:    fmt.Sprintf("%d%%", e.Humidity),
			})
		}
		return screen
	}

	c := s.Current
	screen.ToggleLabel = ShowForecastLabel
	screen.Current = &CurrentPanel{
		Location:        fmt.Sprintf("%s, %s", c.Name, c.Country),
		UnitToggleLabel: s.Unit.Other().Symbol(),
		Icon:            weather.SelectIcon(c.Description),
		Temperature:     tempLabel(c.Temperature, s.Unit),
		Description:     c.Description,
		Humidity:        fmt.Sprintf("%d%%", c.Humidity),
		WindSpeed:       fmt.Sprintf("%g m/s", c.WindSpeed),
	}
	return screen
}

// WriteText draws the screen for a terminal.
func (s Screen) WriteText(w io.Writer) error {
	var b strings.Builder

	if s.SearchText != "" {
		fmt.Fprintf(&b, "Search: %s\n", s.SearchText)
	}
	if s.Error != "" {
		fmt.Fprintf(&b, "! %s\n", s.Error)
	}
	if !s.HasWeather {
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "[%s]\n\n", s.ToggleLabel)

	if s.Current != nil {
		c := s.Current
		fmt.Fprintf(&b, "%s  [%s]\n", c.Location, c.UnitToggleLabel)
		fmt.Fprintf(&b, "%s  %s\n", c.Icon.Glyph(), c.Temperature)
		fmt.Fprintf(&b, "%s\n", c.Description)
		fmt.Fprintf(&b, "Humidity: %s  Wind Speed: %s\n", c.Humidity, c.WindSpeed)
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("5-Day Forecast\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tTemp\tCondition\tHumidity")
	for _, row := range s.Forecast {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\n", row.Date, row.Temperature, row.Icon.Glyph(), row.Description, row.Humidity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}

package weather

import (
	"strings"
	"time"
)

const (
	noonMarker       = "12:00:00"
	forecastLayout   = "2006-01-02 15:04:05"
	forecastDayShort = "Jan 02"
)

// FilterNoon keeps one reading per day: the entries taken at noon.
func FilterNoon(entries []ForecastEntry) []ForecastEntry {
	out := make([]ForecastEntry, 0, len(entries)/8+1)
	for _, e := range entries {
		if strings.Contains(e.Timestamp, noonMarker) {
			out = append(out, e)
		}
	}
	return out
}

// FormatForecastDate renders a dt_txt value as a short month and a
// zero-padded day, e.g. "May 01". Unparseable input is returned unchanged.
func FormatForecastDate(dtTxt string) string {
	t, err := time.Parse(forecastLayout, dtTxt)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, dtTxt); err != nil {
			return dtTxt
		}
	}
	return t.Format(forecastDayShort)
}

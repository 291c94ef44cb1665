package weather

import (
	"fmt"
	"math"
	"strings"
)

type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// ParseUnit accepts "C", "F" and their long names, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c", "celsius", "metric":
		return Celsius, nil
	case "f", "fahrenheit", "imperial":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q", s)
	}
}

func (u Unit) Other() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}

// Symbol is the display suffix, e.g. "°C".
func (u Unit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

func ConvertTemp(celsius float64, u Unit) float64 {
	if u == Fahrenheit {
		return celsius*9/5 + 32
	}
	return celsius
}

func FormatTemp(celsius float64, u Unit) int {
	return int(math.Round(ConvertTemp(celsius, u)))
}

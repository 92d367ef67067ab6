package weather

import (
	"fmt"
	"math"
	"strings"
)

// Units is the unit system requested by the caller.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits accepts "metric" or "imperial" (case-insensitive).
func ParseUnits(s string) (Units, error) {
	switch Units(strings.ToLower(strings.TrimSpace(s))) {
	case UnitsMetric:
		return UnitsMetric, nil
	case UnitsImperial:
		return UnitsImperial, nil
	default:
		return "", fmt.Errorf("unknown unit system %q", s)
	}
}

// ToCelsius converts Kelvin to whole degrees Celsius.
// The conversion is one-way: feeding the result back in is not a round trip.
func ToCelsius(kelvin float64) int {
	return int(math.Round(kelvin - 273.15))
}

// ToFahrenheit converts Kelvin to whole degrees Fahrenheit.
func ToFahrenheit(kelvin float64) int {
	return int(math.Round((kelvin-273.15)*9/5 + 32))
}

// Convert converts a Kelvin leaf value into u.
func (u Units) Convert(kelvin float64) int {
	if u == UnitsImperial {
		return ToFahrenheit(kelvin)
	}
	return ToCelsius(kelvin)
}

// Symbol returns the display suffix for temperatures.
func (u Units) Symbol() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}


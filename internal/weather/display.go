package weather

import (
	"fmt"
	"math"
	"time"
)

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirection maps compass degrees to one of 16 labels using
// round(degrees / 22.5) mod 16.
func WindDirection(degrees float64) string {
	idx := int(math.Round(degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

// UVIndexLabel classifies a UV index.
func UVIndexLabel(uvi float64) string {
	switch {
	case uvi <= 2:
		return "Low"
	case uvi <= 5:
		return "Moderate"
	case uvi <= 7:
		return "High"
	case uvi <= 10:
		return "Very High"
	default:
		return "Extreme"
	}
}

// IconURL returns the image URL for a provider icon token; size is "2x" or "4x".
func IconURL(icon, size string) string {
	if size != "2x" {
		size = "4x"
	}
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@%s.png", icon, size)
}

// LocalTime shifts a unix timestamp into the location's wall clock. The result
// is expressed in UTC so formatting it prints local wall time.
func LocalTime(ts int64, offsetSeconds int) time.Time {
	return time.Unix(ts+int64(offsetSeconds), 0).UTC()
}

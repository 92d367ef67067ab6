package weather

import (
	"fmt"
	"strings"
)

// Location represents a resolved place returned by forward or reverse geocoding.
type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return fmt.Sprintf("%s:%s:%.4f:%.4f", l.Name, l.Country, l.Lat, l.Lon)
}

// Condition is the primary weather condition of a sample.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Precipitation holds rain or snow volumes in millimetres.
type Precipitation struct {
	OneHour   *float64 `json:"1h,omitempty"`
	ThreeHour *float64 `json:"3h,omitempty"`
}

// CurrentConditions is point-in-time weather for a Location.
// Temperatures are in the unit system requested by the caller.
type CurrentConditions struct {
	City        string         `json:"city"`
	Country     string         `json:"country"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Temp        int            `json:"temp"`
	FeelsLike   int            `json:"feels_like"`
	TempMin     int            `json:"temp_min"`
	TempMax     int            `json:"temp_max"`
	Humidity    int            `json:"humidity"`
	WindSpeed   float64        `json:"wind_speed"`
	WindDeg     int            `json:"wind_deg"`
	Clouds      int            `json:"clouds"`
	Sunrise     int64          `json:"sunrise"`
	Sunset      int64          `json:"sunset"`
	Timezone    int            `json:"timezone"` // UTC offset in seconds
	Dt          int64          `json:"dt"`
	UVI         float64        `json:"uvi"`
	Visibility  *int           `json:"visibility,omitempty"`
	Rain        *Precipitation `json:"rain,omitempty"`
	Snow        *Precipitation `json:"snow,omitempty"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
}

// HourlyPoint is one forecast sample.
type HourlyPoint struct {
	Dt        int64     `json:"dt"`
	Temp      int       `json:"temp"`
	FeelsLike int       `json:"feels_like"`
	Humidity  int       `json:"humidity"`
	Weather   Condition `json:"weather"`
	Pop       float64   `json:"pop"`
}

// DailyTemp is the temperature breakdown of a single day.
type DailyTemp struct {
	Day   int `json:"day"`
	Min   int `json:"min"`
	Max   int `json:"max"`
	Night int `json:"night"`
	Eve   int `json:"eve"`
	Morn  int `json:"morn"`
}

// DailyFeelsLike is the feels-like breakdown of a single day.
type DailyFeelsLike struct {
	Day   int `json:"day"`
	Night int `json:"night"`
	Eve   int `json:"eve"`
	Morn  int `json:"morn"`
}

// DailyPoint is one calendar day's aggregate.
type DailyPoint struct {
	Dt        int64          `json:"dt"`
	Sunrise   int64          `json:"sunrise"`
	Sunset    int64          `json:"sunset"`
	Temp      DailyTemp      `json:"temp"`
	FeelsLike DailyFeelsLike `json:"feels_like"`
	Humidity  int            `json:"humidity"`
	Weather   Condition      `json:"weather"`
	WindSpeed float64        `json:"wind_speed"`
	WindDeg   int            `json:"wind_deg"`
	Pop       float64        `json:"pop"`
	UVI       float64        `json:"uvi"`
}

// WeatherSnapshot is the normalized current + hourly + daily result for one
// location/unit combination. Daily always has ForecastDays entries.
type WeatherSnapshot struct {
	Current CurrentConditions `json:"current"`
	Hourly  []HourlyPoint     `json:"hourly"`
	Daily   []DailyPoint      `json:"daily"`
}

// Query identifies what the caller asked for: either a free-text city or a
// coordinate pair. Name, when set on a coordinate query, is used as the display
// name and reverse geocoding is skipped.
type Query struct {
	City string   `json:"city,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
	Name string   `json:"name,omitempty"`
}

// CityQuery builds a free-text query.
func CityQuery(city string) Query {
	return Query{City: strings.TrimSpace(city)}
}

// CoordinatesQuery builds a coordinate query.
func CoordinatesQuery(lat, lon float64) Query {
	return Query{Lat: &lat, Lon: &lon}
}

// IsCoordinates reports whether the query carries a coordinate pair.
func (q Query) IsCoordinates() bool {
	return q.Lat != nil && q.Lon != nil
}

func (q Query) String() string {
	if q.IsCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", *q.Lat, *q.Lon)
	}
	return q.City
}

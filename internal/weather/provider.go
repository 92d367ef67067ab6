package weather

import (
	"context"
)

// Geocoder resolves place identity.
type Geocoder interface {
	// ResolveCity returns the first match the provider returns for name.
	ResolveCity(ctx context.Context, name string) (Location, error)
	// ResolveCoordinates returns the nearest named place.
	ResolveCoordinates(ctx context.Context, lat, lon float64) (Location, error)
}

// Fetcher retrieves raw weather payloads for a coordinate pair.
type Fetcher interface {
	FetchCurrentAndForecast(ctx context.Context, lat, lon float64) (RawPayloads, error)
}

// OneCallFetcher is implemented by fetchers that can serve the combined
// current/hourly/daily endpoint.
type OneCallFetcher interface {
	FetchOneCall(ctx context.Context, lat, lon float64) (RawPayloads, error)
}

// RawPayloads is what a Fetcher hands to the Normalizer. Either Current and
// Forecast are both set (standard endpoints) or OneCall is set.
type RawPayloads struct {
	Current  *RawCurrent
	Forecast *RawForecast
	OneCall  *RawOneCall
}

// RawCondition mirrors the provider's weather[] element.
type RawCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// RawMain holds the thermodynamic block shared by current and forecast samples.
type RawMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  int     `json:"humidity"`
	Pressure  int     `json:"pressure"`
}

type RawWind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

type RawClouds struct {
	All int `json:"all"`
}

// RawCurrent is the current-conditions payload. Temperatures are Kelvin.
type RawCurrent struct {
	Dt       int64 `json:"dt"`
	Timezone int   `json:"timezone"`
	Coord    struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather    []RawCondition `json:"weather"`
	Main       *RawMain       `json:"main"`
	Wind       RawWind        `json:"wind"`
	Clouds     RawClouds      `json:"clouds"`
	Visibility *int           `json:"visibility"`
	Rain       *Precipitation `json:"rain"`
	Snow       *Precipitation `json:"snow"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Name string `json:"name"`
}

// RawForecastItem is one 3-hour sample. Temperatures are Kelvin.
type RawForecastItem struct {
	Dt         int64          `json:"dt"`
	Main       RawMain        `json:"main"`
	Weather    []RawCondition `json:"weather"`
	Clouds     RawClouds      `json:"clouds"`
	Wind       RawWind        `json:"wind"`
	Visibility *int           `json:"visibility"`
	Pop        float64        `json:"pop"`
	DtTxt      string         `json:"dt_txt"`
}

// RawForecast is the flat chronological 3-hour forecast list.
type RawForecast struct {
	Cnt  int               `json:"cnt"`
	List []RawForecastItem `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Coord   struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Timezone int   `json:"timezone"`
		Sunrise  int64 `json:"sunrise"`
		Sunset   int64 `json:"sunset"`
	} `json:"city"`
}

// RawOneCall is the combined endpoint payload. Temperatures are Kelvin.
type RawOneCall struct {
	Lat            float64            `json:"lat"`
	Lon            float64            `json:"lon"`
	TimezoneOffset int                `json:"timezone_offset"`
	Current        *RawOneCallCurrent `json:"current"`
	Hourly         []RawOneCallHourly `json:"hourly"`
	Daily          []RawOneCallDaily  `json:"daily"`
}

type RawOneCallCurrent struct {
	Dt         int64          `json:"dt"`
	Sunrise    int64          `json:"sunrise"`
	Sunset     int64          `json:"sunset"`
	Temp       float64        `json:"temp"`
	FeelsLike  float64        `json:"feels_like"`
	Humidity   int            `json:"humidity"`
	UVI        float64        `json:"uvi"`
	Clouds     int            `json:"clouds"`
	Visibility *int           `json:"visibility"`
	WindSpeed  float64        `json:"wind_speed"`
	WindDeg    int            `json:"wind_deg"`
	Weather    []RawCondition `json:"weather"`
	Rain       *Precipitation `json:"rain"`
	Snow       *Precipitation `json:"snow"`
}

type RawOneCallHourly struct {
	Dt        int64          `json:"dt"`
	Temp      float64        `json:"temp"`
	FeelsLike float64        `json:"feels_like"`
	Humidity  int            `json:"humidity"`
	Weather   []RawCondition `json:"weather"`
	Pop       float64        `json:"pop"`
}

type RawOneCallDaily struct {
	Dt      int64 `json:"dt"`
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
	Temp    struct {
		Day   float64 `json:"day"`
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
		Night float64 `json:"night"`
		Eve   float64 `json:"eve"`
		Morn  float64 `json:"morn"`
	} `json:"temp"`
	FeelsLike struct {
		Day   float64 `json:"day"`
		Night float64 `json:"night"`
		Eve   float64 `json:"eve"`
		Morn  float64 `json:"morn"`
	} `json:"feels_like"`
	Humidity  int            `json:"humidity"`
	Weather   []RawCondition `json:"weather"`
	WindSpeed float64        `json:"wind_speed"`
	WindDeg   int            `json:"wind_deg"`
	Pop       float64        `json:"pop"`
	UVI       float64        `json:"uvi"`
}

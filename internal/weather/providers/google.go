package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder resolves place identity through the Google Geocoding API.
// It implements weather.Geocoder only; weather data still comes from a
// weather.Fetcher.
type GoogleGeocoder struct {
	name   string
	apiKey string

	geocode func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		name:    "google-geocoding",
		apiKey:  apiKey,
		geocode: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

// ResolveCity geocodes a free-text place name. The Google API returns a single
// best match; the display name is the queried text.
func (g *GoogleGeocoder) ResolveCity(ctx context.Context, name string) (weather.Location, error) {
	if err := ctx.Err(); err != nil {
		return weather.Location{}, &weather.UpstreamError{Op: "geocode", Err: err}
	}

	city, country := splitCityCountry(name)

	var (
		loc geocoder.Location
		err error
	)
	g.withKey(func() {
		loc, err = g.geocode(geocoder.Address{City: city, Country: country})
	})
	if err != nil {
		return weather.Location{}, g.classify("geocode", name, err)
	}

	return weather.Location{
		Name:    city,
		Country: country,
		Lat:     loc.Latitude,
		Lon:     loc.Longitude,
	}, nil
}

// ResolveCoordinates reverse-geocodes and takes the first address returned.
func (g *GoogleGeocoder) ResolveCoordinates(ctx context.Context, lat, lon float64) (weather.Location, error) {
	if err := ctx.Err(); err != nil {
		return weather.Location{}, &weather.UpstreamError{Op: "reverse geocode", Err: err}
	}

	query := fmt.Sprintf("%g,%g", lat, lon)

	var (
		addresses []geocoder.Address
		err       error
	)
	g.withKey(func() {
		addresses, err = g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
	})
	if err != nil {
		return weather.Location{}, g.classify("reverse geocode", query, err)
	}
	if len(addresses) == 0 {
		return weather.Location{}, &weather.NotFoundError{Query: query}
	}

	first := addresses[0]
	name := first.City
	if name == "" {
		name = first.FormattedAddress
	}
	return weather.Location{
		Name:    name,
		Country: first.Country,
		Lat:     lat,
		Lon:     lon,
	}, nil
}

func (g *GoogleGeocoder) withKey(fn func()) {
	googleKeyMu.Lock()
	defer googleKeyMu.Unlock()
	geocoder.ApiKey = g.apiKey
	fn()
}

func (g *GoogleGeocoder) classify(op, query string, err error) error {
	if common.ContainsAnyFold(err.Error(), "zero_results", "no results", "empty results") {
		return &weather.NotFoundError{Query: query}
	}
	return &weather.UpstreamError{Op: op, Err: err}
}

// splitCityCountry splits "Paris, FR" into its parts.
func splitCityCountry(s string) (string, string) {
	city, country, _ := strings.Cut(s, ",")
	return strings.TrimSpace(city), strings.TrimSpace(country)
}

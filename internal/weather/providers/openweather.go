package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"
	DefaultOpenWeatherGeoURL  = "https://api.openweathermap.org"
)

// ProxyEndpoint names one of the four read-only endpoints exposed through the
// local proxy.
type ProxyEndpoint string

const (
	ProxyCurrent    ProxyEndpoint = "current"
	ProxyForecast   ProxyEndpoint = "forecast"
	ProxyGeoDirect  ProxyEndpoint = "geo/direct"
	ProxyGeoReverse ProxyEndpoint = "geo/reverse"
)

// OpenWeatherOptions configures an OpenWeatherClient. Zero values select the
// public endpoints and no retries.
type OpenWeatherOptions struct {
	BaseURL    string
	GeoURL     string
	MaxRetries int
}

// OpenWeatherClient talks to OpenWeatherMap. It implements weather.Geocoder,
// weather.Fetcher and weather.OneCallFetcher. Temperatures are requested in
// the provider default (Kelvin) so conversion happens in the normalizer only.
type OpenWeatherClient struct {
	name    string
	apiKey  string
	baseURL string
	geoURL  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, apiKey string, opts OpenWeatherOptions) *OpenWeatherClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenWeatherBaseURL
	}
	if opts.GeoURL == "" {
		opts.GeoURL = DefaultOpenWeatherGeoURL
	}

	return &OpenWeatherClient{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		geoURL:  strings.TrimRight(opts.GeoURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      opts.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherClient) Name() string {
	return p.name
}

type geoResult struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// ResolveCity returns the first forward-geocoding match. Results are not
// re-ranked, so an ambiguous name resolves to whatever the provider lists first.
func (p *OpenWeatherClient) ResolveCity(ctx context.Context, name string) (weather.Location, error) {
	values := url.Values{}
	values.Set("q", name)
	values.Set("limit", "1")

	var results []geoResult
	if err := p.getJSON(ctx, "geocode", p.geoURL+"/geo/1.0/direct", values, &results); err != nil {
		return weather.Location{}, err
	}
	if len(results) == 0 {
		return weather.Location{}, &weather.NotFoundError{Query: name}
	}

	first := results[0]
	return weather.Location{
		Name:    first.Name,
		Country: first.Country,
		Lat:     first.Lat,
		Lon:     first.Lon,
	}, nil
}

// ResolveCoordinates returns the nearest named place; the location keeps the
// caller's coordinates.
func (p *OpenWeatherClient) ResolveCoordinates(ctx context.Context, lat, lon float64) (weather.Location, error) {
	values := coordValues(lat, lon)
	values.Set("limit", "1")

	var results []geoResult
	if err := p.getJSON(ctx, "reverse geocode", p.geoURL+"/geo/1.0/reverse", values, &results); err != nil {
		return weather.Location{}, err
	}
	if len(results) == 0 {
		return weather.Location{}, &weather.NotFoundError{Query: fmt.Sprintf("%g,%g", lat, lon)}
	}

	return weather.Location{
		Name:    results[0].Name,
		Country: results[0].Country,
		Lat:     lat,
		Lon:     lon,
	}, nil
}

// FetchCurrentAndForecast fetches current conditions and the 3-hour forecast
// concurrently. Both must succeed.
func (p *OpenWeatherClient) FetchCurrentAndForecast(ctx context.Context, lat, lon float64) (weather.RawPayloads, error) {
	var (
		wg          sync.WaitGroup
		current     weather.RawCurrent
		forecast    weather.RawForecast
		currentErr  error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		currentErr = p.getJSON(ctx, "current weather", p.baseURL+"/data/2.5/weather", coordValues(lat, lon), &current)
	}()
	go func() {
		defer wg.Done()
		forecastErr = p.getJSON(ctx, "forecast", p.baseURL+"/data/2.5/forecast", coordValues(lat, lon), &forecast)
	}()
	wg.Wait()

	if currentErr != nil {
		return weather.RawPayloads{}, currentErr
	}
	if forecastErr != nil {
		return weather.RawPayloads{}, forecastErr
	}

	return weather.RawPayloads{Current: &current, Forecast: &forecast}, nil
}

// FetchOneCall fetches the combined current/hourly/daily payload.
func (p *OpenWeatherClient) FetchOneCall(ctx context.Context, lat, lon float64) (weather.RawPayloads, error) {
	values := coordValues(lat, lon)
	values.Set("exclude", "minutely,alerts")

	var oc weather.RawOneCall
	if err := p.getJSON(ctx, "onecall", p.baseURL+"/data/3.0/onecall", values, &oc); err != nil {
		return weather.RawPayloads{}, err
	}
	return weather.RawPayloads{OneCall: &oc}, nil
}

// Proxy forwards one of the four proxy endpoints and returns the raw body.
// Only the parameters each endpoint needs are forwarded.
func (p *OpenWeatherClient) Proxy(ctx context.Context, ep ProxyEndpoint, params url.Values) ([]byte, error) {
	values := url.Values{}
	var target string

	switch ep {
	case ProxyCurrent:
		target = p.baseURL + "/data/2.5/weather"
		copyParams(values, params, "lat", "lon")
	case ProxyForecast:
		target = p.baseURL + "/data/2.5/forecast"
		copyParams(values, params, "lat", "lon")
	case ProxyGeoDirect:
		target = p.geoURL + "/geo/1.0/direct"
		copyParams(values, params, "q")
		values.Set("limit", "1")
	case ProxyGeoReverse:
		target = p.geoURL + "/geo/1.0/reverse"
		copyParams(values, params, "lat", "lon")
		values.Set("limit", "1")
	default:
		return nil, fmt.Errorf("unknown proxy endpoint %q", ep)
	}

	return p.get(ctx, "proxy "+string(ep), target, values)
}

func (p *OpenWeatherClient) getJSON(ctx context.Context, op, endpoint string, values url.Values, target interface{}) error {
	body, err := p.get(ctx, op, endpoint, values)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &weather.UpstreamError{Op: op, Status: http.StatusOK, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func (p *OpenWeatherClient) get(ctx context.Context, op, endpoint string, values url.Values) ([]byte, error) {
	if p.apiKey == "" {
		return nil, &weather.UpstreamError{Op: op, Err: errNoAPIKey}
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s?%s", endpoint, q.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	body, err := doRequest(ctx, op, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		log.Printf("provider %s %s failed: %v", p.name, op, err)
		return nil, err
	}
	return body, nil
}

func coordValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return values
}

func copyParams(dst, src url.Values, keys ...string) {
	for _, k := range keys {
		if v := src.Get(k); v != "" {
			dst.Set(k, v)
		}
	}
}

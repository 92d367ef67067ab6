package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Endpoint selects which provider endpoints feed the snapshot.
type Endpoint string

const (
	// EndpointStandard uses the free-tier current + 3-hour forecast endpoints.
	EndpointStandard Endpoint = "standard"
	// EndpointOneCall uses the combined endpoint when the fetcher supports it.
	EndpointOneCall Endpoint = "onecall"
)

// ServiceOptions tunes a Service.
type ServiceOptions struct {
	Normalizer Normalizer
	Endpoint   Endpoint
	// Strict surfaces malformed payloads as PreconditionError instead of
	// degrading them to UpstreamError. Meant for development.
	Strict bool
}

// Service resolves a query, fetches raw payloads and normalizes them.
type Service struct {
	geocoder Geocoder
	fetcher  Fetcher
	opts     ServiceOptions
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, fetcher Fetcher, opts ServiceOptions) *Service {
	if opts.Endpoint == "" {
		opts.Endpoint = EndpointStandard
	}
	if opts.Normalizer.HourlyLimit <= 0 || opts.Normalizer.Jitter == nil {
		opts.Normalizer = NewNormalizer(opts.Normalizer.HourlyLimit, opts.Normalizer.Jitter)
	}
	return &Service{
		geocoder: geocoder,
		fetcher:  fetcher,
		opts:     opts,
	}
}

// GetSnapshot resolves q, fetches current and forecast data and returns the
// normalized snapshot. The operation is all-or-nothing.
func (s *Service) GetSnapshot(ctx context.Context, q Query, units Units) (WeatherSnapshot, error) {
	if s.geocoder == nil || s.fetcher == nil {
		return WeatherSnapshot{}, errors.New("weather service is not configured")
	}
	if units == "" {
		units = UnitsMetric
	}

	loc, err := s.resolve(ctx, q)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	log.Printf("DEBUG: GetSnapshot fetching %s (%s) in %s", loc.Name, q, units)

	raw, err := s.fetch(ctx, loc)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	if err := s.opts.Normalizer.Validate(raw); err != nil {
		if s.opts.Strict {
			return WeatherSnapshot{}, err
		}
		log.Printf("ERROR: provider payload for %s failed validation: %v", q, err)
		return WeatherSnapshot{}, &UpstreamError{Op: "normalize", Err: err}
	}

	return s.opts.Normalizer.Normalize(loc, raw, units), nil
}

func (s *Service) resolve(ctx context.Context, q Query) (Location, error) {
	if q.IsCoordinates() {
		if q.Name != "" {
			return Location{Name: q.Name, Lat: *q.Lat, Lon: *q.Lon}, nil
		}
		loc, err := s.geocoder.ResolveCoordinates(ctx, *q.Lat, *q.Lon)
		if err != nil {
			return Location{}, fmt.Errorf("reverse geocoding %s: %w", q, err)
		}
		return loc, nil
	}

	if q.City == "" {
		return Location{}, errors.New("query must name a city or carry coordinates")
	}
	loc, err := s.geocoder.ResolveCity(ctx, q.City)
	if err != nil {
		return Location{}, fmt.Errorf("geocoding %q: %w", q.City, err)
	}
	return loc, nil
}

func (s *Service) fetch(ctx context.Context, loc Location) (RawPayloads, error) {
	if s.opts.Endpoint == EndpointOneCall {
		if oc, ok := s.fetcher.(OneCallFetcher); ok {
			return oc.FetchOneCall(ctx, loc.Lat, loc.Lon)
		}
		log.Printf("INFO: fetcher does not support one-call; using standard endpoints")
	}
	return s.fetcher.FetchCurrentAndForecast(ctx, loc.Lat, loc.Lon)
}

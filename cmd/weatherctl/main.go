package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	city := flag.String("city", "", "city to look up, e.g. \"Paris\" or \"Paris, FR\"")
	lat := flag.Float64("lat", 0, "latitude (use with -lon)")
	lon := flag.Float64("lon", 0, "longitude (use with -lat)")
	unitsFlag := flag.String("units", "", "metric or imperial (default from DEFAULT_UNITS)")
	mock := flag.Bool("mock", false, "print demonstration data without calling the provider")
	asJSON := flag.Bool("json", false, "print the snapshot as JSON")
	hourly := flag.Int("hours", 8, "number of hourly entries to print")
	flag.Parse()

	if err := run(os.Stdout, *city, *lat, *lon, *unitsFlag, *mock, *asJSON, *hourly); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, city string, lat, lon float64, unitsFlag string, mock, asJSON bool, hours int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	units := cfg.DefaultUnits
	if unitsFlag != "" {
		if units, err = weather.ParseUnits(unitsFlag); err != nil {
			return err
		}
	}

	jitter := weather.NewRandJitter(cfg.JitterSeed)

	var snap weather.WeatherSnapshot
	if mock {
		snap = weather.MockSnapshot(units, time.Now(), jitter)
	} else {
		q, err := buildQuery(city, lat, lon, cfg.FallbackCity)
		if err != nil {
			return err
		}

		client := providers.NewOpenWeatherClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.OpenWeatherAPIKey, providers.OpenWeatherOptions{
			BaseURL:    cfg.OpenWeatherBaseURL,
			GeoURL:     cfg.OpenWeatherGeoURL,
			MaxRetries: cfg.MaxRetries,
		})
		var geocoder weather.Geocoder = client
		if cfg.GeocoderAPIKey != "" {
			geocoder = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
		}
		svc := weather.NewService(geocoder, client, weather.ServiceOptions{
			Normalizer: weather.NewNormalizer(cfg.HourlyLimit, jitter),
			Endpoint:   cfg.Endpoint,
			Strict:     cfg.Strict(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if snap, err = svc.GetSnapshot(ctx, q, units); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	displaySnapshot(w, snap, units, hours)
	return nil
}

func buildQuery(city string, lat, lon float64, fallback string) (weather.Query, error) {
	city = strings.TrimSpace(city)
	latSet, lonSet := isFlagSet("lat"), isFlagSet("lon")

	switch {
	case city != "":
		return weather.CityQuery(city), nil
	case latSet && lonSet:
		return weather.CoordinatesQuery(lat, lon), nil
	case latSet || lonSet:
		return weather.Query{}, fmt.Errorf("-lat and -lon must be given together")
	default:
		return weather.CityQuery(fallback), nil
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func displaySnapshot(w io.Writer, s weather.WeatherSnapshot, units weather.Units, hours int) {
	title := cases.Title(language.English)
	sym := units.Symbol()
	cur := s.Current

	header := fmt.Sprintf("Weather for %s, %s:", cur.City, cur.Country)
	fmt.Fprintf(w, "%s\n", header)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(header)))
	fmt.Fprintf(w, "Conditions:  %s\n", title.String(cur.Description))
	fmt.Fprintf(w, "Temperature: %d%s (feels like %d%s)\n", cur.Temp, sym, cur.FeelsLike, sym)
	fmt.Fprintf(w, "  Max:       %d%s\n", cur.TempMax, sym)
	fmt.Fprintf(w, "  Min:       %d%s\n", cur.TempMin, sym)
	fmt.Fprintf(w, "Humidity:    %d%%\n", cur.Humidity)
	fmt.Fprintf(w, "Wind:        %.1f m/s %s\n", cur.WindSpeed, weather.WindDirection(float64(cur.WindDeg)))
	fmt.Fprintf(w, "UV index:    %.1f (%s)\n", cur.UVI, weather.UVIndexLabel(cur.UVI))
	fmt.Fprintf(w, "Sunrise:     %s\n", weather.LocalTime(cur.Sunrise, cur.Timezone).Format("15:04"))
	fmt.Fprintf(w, "Sunset:      %s\n", weather.LocalTime(cur.Sunset, cur.Timezone).Format("15:04"))

	if hours > len(s.Hourly) {
		hours = len(s.Hourly)
	}
	if hours > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Hourly:")
		for _, h := range s.Hourly[:hours] {
			fmt.Fprintf(w, "  %s  %4d%s  %-20s rain %3.0f%%\n",
				weather.LocalTime(h.Dt, cur.Timezone).Format("Mon 15:04"),
				h.Temp, sym,
				title.String(h.Weather.Description),
				h.Pop*100)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d-Day Forecast:\n", len(s.Daily))
	for _, d := range s.Daily {
		fmt.Fprintf(w, "  %s  %-20s High: %4d%s  Low: %4d%s  Wind: %4.1f m/s %-3s  Rain: %3.0f%%\n",
			weather.LocalTime(d.Dt, cur.Timezone).Format("Mon 2006-01-02"),
			title.String(d.Weather.Description),
			d.Temp.Max, sym,
			d.Temp.Min, sym,
			d.WindSpeed, weather.WindDirection(float64(d.WindDeg)),
			d.Pop*100)
	}
}

package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type AppConfig struct {
	Port   string
	AppEnv string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherGeoURL  string
	Endpoint           weather.Endpoint

	// Optional; when set, geocoding goes through Google instead of OpenWeather.
	GeocoderAPIKey string

	// 0 leaves the platform default in place.
	HTTPTimeout time.Duration
	MaxRetries  int

	HourlyLimit  int
	DefaultUnits weather.Units
	FallbackCity string
	HistoryLimit int

	SessionBackend string
	RedisURL       string
	SQLitePath     string
	SessionMaxAge  time.Duration

	// 0 disables the periodic refresh.
	RefreshInterval time.Duration

	StaticDir  string
	JitterSeed uint64
}

// Strict reports whether upstream payload checks should surface as
// precondition failures rather than upstream errors.
func (c *AppConfig) Strict() bool {
	return c.AppEnv != EnvProduction
}

// source resolves a key from the environment first, then from the optional
// YAML file.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[strings.ToLower(key)]
}

func (s source) getDefault(key, def string) string {
	if v := s.get(key); v != "" {
		return v
	}
	return def
}

func (s source) getInt(key string, def int) (int, error) {
	v := s.get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func (s source) getDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(s.getDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// Load reads configuration from .env, the optional CONFIG_FILE and the
// environment, in increasing order of precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		file, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}
	return load(src)
}

func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return parseFile(data)
}

// parseFile decodes a flat YAML mapping whose keys are the lower-cased
// environment variable names.
func parseFile(data []byte) (map[string]string, error) {
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[strings.ToLower(k)] = v
	}
	return out, nil
}

func load(src source) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.Port = src.getDefault("PORT", "8080")
	cfg.AppEnv = src.getDefault("APP_ENV", EnvDevelopment)

	cfg.OpenWeatherAPIKey = src.get("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = src.get("OPENWEATHER_BASE_URL")
	cfg.OpenWeatherGeoURL = src.get("OPENWEATHER_GEO_URL")
	cfg.GeocoderAPIKey = src.get("GEOCODER_API_KEY")

	for key, v := range map[string]string{
		"OPENWEATHER_BASE_URL": cfg.OpenWeatherBaseURL,
		"OPENWEATHER_GEO_URL":  cfg.OpenWeatherGeoURL,
	} {
		if err := checkBaseURL(v); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	switch ep := weather.Endpoint(src.getDefault("OPENWEATHER_ENDPOINT", string(weather.EndpointStandard))); ep {
	case weather.EndpointStandard, weather.EndpointOneCall:
		cfg.Endpoint = ep
	default:
		return nil, fmt.Errorf("invalid OPENWEATHER_ENDPOINT %q", ep)
	}

	if cfg.HTTPTimeout, err = src.getDuration("HTTP_TIMEOUT", "0s"); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = src.getInt("PROVIDER_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.HourlyLimit, err = src.getInt("HOURLY_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.HourlyLimit < 0 || cfg.HourlyLimit > weather.DefaultHourlyLimit {
		return nil, fmt.Errorf("invalid HOURLY_LIMIT %d: must be between 0 and %d", cfg.HourlyLimit, weather.DefaultHourlyLimit)
	}

	if cfg.DefaultUnits, err = weather.ParseUnits(src.getDefault("DEFAULT_UNITS", string(weather.UnitsMetric))); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_UNITS: %w", err)
	}

	cfg.FallbackCity = src.getDefault("FALLBACK_CITY", "New York")
	if cfg.HistoryLimit, err = src.getInt("HISTORY_LIMIT", 10); err != nil {
		return nil, err
	}

	cfg.SessionBackend = src.getDefault("SESSION_BACKEND", "memory")
	cfg.RedisURL = src.getDefault("REDIS_URL", "redis://localhost:6379/0")
	cfg.SQLitePath = src.getDefault("SQLITE_PATH", "sessions.db")
	if cfg.SessionMaxAge, err = src.getDuration("SESSION_MAX_AGE", "720h"); err != nil {
		return nil, err
	}

	if cfg.RefreshInterval, err = src.getDuration("REFRESH_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	cfg.StaticDir = src.get("STATIC_DIR")

	if v := src.get("JITTER_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid JITTER_SEED: %w", err)
		}
		cfg.JitterSeed = seed
	}

	if cfg.OpenWeatherAPIKey == "" {
		log.Println("INFO: OPENWEATHER_API_KEY is not set; live weather requests will fail")
	}

	return cfg, nil
}

// checkBaseURL accepts an empty value (provider default) or an absolute http(s)
// URL without a query string.
func checkBaseURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%q must not carry a query string", raw)
	}
	return nil
}

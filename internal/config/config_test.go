package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var configKeys = []string{
	"PORT", "APP_ENV", "OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "OPENWEATHER_GEO_URL",
	"OPENWEATHER_ENDPOINT", "GEOCODER_API_KEY", "HTTP_TIMEOUT", "PROVIDER_MAX_RETRIES",
	"HOURLY_LIMIT", "DEFAULT_UNITS", "FALLBACK_CITY", "HISTORY_LIMIT", "SESSION_BACKEND",
	"REDIS_URL", "SQLITE_PATH", "SESSION_MAX_AGE", "REFRESH_INTERVAL", "STATIC_DIR",
	"JITTER_SEED", "CONFIG_FILE",
}

// clearEnv blanks every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load(source{})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.AppEnv)
	assert.True(t, cfg.Strict())
	assert.Equal(t, weather.EndpointStandard, cfg.Endpoint)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.Zero(t, cfg.MaxRetries)
	assert.Equal(t, weather.UnitsMetric, cfg.DefaultUnits)
	assert.Equal(t, "New York", cfg.FallbackCity)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 720*time.Hour, cfg.SessionMaxAge)
	assert.Zero(t, cfg.RefreshInterval)
	assert.Zero(t, cfg.JitterSeed)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
app_env: production
openweather_endpoint: onecall
default_units: imperial
refresh_interval: 10m
history_limit: 5
jitter_seed: 42
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("HTTP_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, EnvProduction, cfg.AppEnv)
	assert.False(t, cfg.Strict())
	assert.Equal(t, weather.EndpointOneCall, cfg.Endpoint)
	assert.Equal(t, weather.UnitsImperial, cfg.DefaultUnits)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.Equal(t, uint64(42), cfg.JitterSeed)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestLoadInvalidValues(t *testing.T) {
	for key, value := range map[string]string{
		"OPENWEATHER_ENDPOINT": "premium",
		"HTTP_TIMEOUT":         "soon",
		"PROVIDER_MAX_RETRIES": "many",
		"DEFAULT_UNITS":        "kelvin",
		"JITTER_SEED":          "-1",
		"HOURLY_LIMIT":         "40",
		"OPENWEATHER_BASE_URL": "http://bad host",
		"OPENWEATHER_GEO_URL":  "ftp://geo.example",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := load(source{})
			assert.Error(t, err)
		})
	}
}

func TestLoadProviderURLs(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_BASE_URL", "http://127.0.0.1:9000")
	t.Setenv("OPENWEATHER_GEO_URL", "https://geo.internal")
	t.Setenv("HOURLY_LIMIT", "8")

	cfg, err := load(source{})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.OpenWeatherBaseURL)
	assert.Equal(t, "https://geo.internal", cfg.OpenWeatherGeoURL)
	assert.Equal(t, 8, cfg.HourlyLimit)

	t.Setenv("OPENWEATHER_BASE_URL", "http://api.local/data?appid=x")
	_, err = load(source{})
	assert.Error(t, err)
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestParseFileRejectsNesting(t *testing.T) {
	_, err := parseFile([]byte("session:\n  backend: redis\n"))
	assert.Error(t, err)
}

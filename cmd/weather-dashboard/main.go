package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	owm := providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey, providers.OpenWeatherOptions{
		BaseURL:    cfg.OpenWeatherBaseURL,
		GeoURL:     cfg.OpenWeatherGeoURL,
		MaxRetries: cfg.MaxRetries,
	})

	var geocoder weather.Geocoder = owm
	if cfg.GeocoderAPIKey != "" {
		log.Println("INFO: using Google geocoding")
		geocoder = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}

	jitter := weather.NewRandJitter(cfg.JitterSeed)
	service := weather.NewService(geocoder, owm, weather.ServiceOptions{
		Normalizer: weather.NewNormalizer(cfg.HourlyLimit, jitter),
		Endpoint:   cfg.Endpoint,
		Strict:     cfg.Strict(),
	})

	sessions, err := store.Open(ctx, store.Options{
		Backend:    cfg.SessionBackend,
		RedisURL:   cfg.RedisURL,
		SQLitePath: cfg.SQLitePath,
		MaxAge:     cfg.SessionMaxAge,
	})
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer sessions.Close()

	manager := dashboard.NewManager(service, sessions, cfg.DefaultUnits, dashboard.Options{
		FallbackCity: cfg.FallbackCity,
		HistoryLimit: cfg.HistoryLimit,
		Jitter:       jitter,
	})

	pruner, _ := sessions.(scheduler.Pruner)
	sched := scheduler.New(manager, pruner, cfg.RefreshInterval, cfg.SessionMaxAge)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders:  "Origin, Content-Type, Accept, " + httpapi.SessionHeader,
		ExposeHeaders: httpapi.SessionHeader,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
			"env":     cfg.AppEnv,
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Proxy:         owm,
		Snapshots:     service,
		Dashboards:    manager,
		DefaultUnits:  cfg.DefaultUnits,
		SessionMaxAge: cfg.SessionMaxAge,
	})

	if cfg.StaticDir != "" {
		registerStatic(app, cfg.StaticDir)
	}

	go func() {
		log.Printf("INFO: listening on :%s (%s)", cfg.Port, cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// registerStatic serves the built front end and falls back to index.html for
// client-side routes.
func registerStatic(app *fiber.App, dir string) {
	app.Static("/", dir)

	index := filepath.Join(dir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
}

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	httpapi "github.com/agroplan/crop-window-planner/internal/api/http"
	"github.com/agroplan/crop-window-planner/internal/catalog"
	"github.com/agroplan/crop-window-planner/internal/config"
	"github.com/agroplan/crop-window-planner/internal/plan"
	"github.com/agroplan/crop-window-planner/internal/scheduler"
	"github.com/agroplan/crop-window-planner/internal/store"
	"github.com/agroplan/crop-window-planner/internal/weather"
	"github.com/agroplan/crop-window-planner/internal/weather/providers"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		log.WithError(err).Info("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory series store with configured retention.
	seriesStore := store.NewMemoryStore(cfg.StoreMaxDays, cfg.StoreMaxAge)

	// Providers with resilience (backoff + circuit breaker).
	var provs []weather.Provider
	provs = append(provs, providers.NewOpenMeteoProvider(httpClient, cfg.GeocoderAPIKey))
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}

	// Weather service orchestrating providers and store.
	service := weather.NewService(seriesStore, provs, cfg.Fields, log)

	// Crop catalog: file-backed when configured, built-in defaults otherwise.
	var crops *catalog.Catalog
	if cfg.CatalogPath != "" {
		crops, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load crop catalog")
		}
	} else {
		crops = catalog.New(catalog.DefaultProfiles()...)
	}

	// Allocation planner.
	planner := plan.NewPlanner(service, crops, cfg.MaxLookaheadDays, cfg.FilterRedundantCandidates, log)

	// Scheduler that periodically prefetches weather series.
	sched := scheduler.New(service, cfg.FetchInterval, cfg.LookbackDays, cfg.ForecastDays, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "crop-window-planner",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "crop-window-planner",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, planner, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}

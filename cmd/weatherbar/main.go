package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/nkoval/weatherbar/internal/api/http"
	"github.com/nkoval/weatherbar/internal/config"
	"github.com/nkoval/weatherbar/internal/location"
	"github.com/nkoval/weatherbar/internal/scheduler"
	"github.com/nkoval/weatherbar/internal/settings"
	"github.com/nkoval/weatherbar/internal/store"
	"github.com/nkoval/weatherbar/internal/transport"
	"github.com/nkoval/weatherbar/internal/weather"
	"github.com/nkoval/weatherbar/internal/weather/providers"
)

func main() {
	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("failed to load config", zap.Error(err))
	}

	st := settings.NewStore(zlog)
	cfg.Seed(st)

	// Separate clients so a flapping geolocation service cannot trip the
	// weather breaker and vice versa.
	weatherClient := transport.NewClient(transport.Config{
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerName:       "weather",
	}, zlog)
	locationClient := transport.NewClient(transport.Config{
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerName:       "location",
	}, zlog)

	providerOpts := location.ProviderOptions{
		SystemLat:    cfg.SystemLat,
		SystemLon:    cfg.SystemLon,
		GoogleAPIKey: cfg.GoogleAPIKey,
	}
	newFixProvider := func() location.FixProvider {
		choice := location.ParseProviderChoice(st.String(settings.KeyMyLocProvider, cfg.MyLocProvider))
		return location.NewFixProvider(choice, locationClient, providerOpts, zlog)
	}
	resolver := location.NewResolver(newFixProvider(), cfg.RefreshFloor, zlog)

	config.FirstRun(st, resolver, cfg, zlog)

	weatherProvider := providers.NewOpenMeteo(weatherClient, resolver, st.MainLocation, cfg.Timezone, zlog)
	snapStore := store.NewSnapshotStore()

	sched := scheduler.New(weatherProvider, snapStore, scheduler.Config{
		Interval:     cfg.FetchInterval,
		RetryDelay:   cfg.RetryDelay,
		MaxRetries:   cfg.MaxRetries,
		FetchTimeout: cfg.HTTPTimeout * 2,
	}, zlog)

	// Settings changes trigger an out-of-band fetch through the same path
	// as the periodic tick.
	st.Subscribe(settings.KeyLocations, sched.Refresh)
	st.Subscribe(settings.KeyMainLocationIndex, sched.Refresh)
	st.Subscribe(settings.KeyMyLocProvider, func() {
		resolver.SetProvider(newFixProvider())
		sched.Refresh()
	})
	// Open-Meteo is the only upstream today; a provider change still
	// refetches so the snapshot reflects the chosen source immediately.
	st.Subscribe(settings.KeyWeatherProvider, sched.Refresh)
	sched.OnUpdate(func(snap *weather.Snapshot) {
		zlog.Debug("snapshot published",
			zap.String("location", snap.Location.Name()),
			zap.String("icon", snap.IconName))
	})

	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weatherbar",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weatherbar",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Store:    snapStore,
		Settings: st,
		Refresh:  sched.Refresh,
		Logger:   zlog,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}

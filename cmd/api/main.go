package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/spotmap/internal/adapters/http"
	natsadapter "github.com/samirrijal/spotmap/internal/adapters/nats"
	"github.com/samirrijal/spotmap/internal/adapters/nominatim"
	"github.com/samirrijal/spotmap/internal/adapters/postgres"
	"github.com/samirrijal/spotmap/internal/adapters/valkey"
	"github.com/samirrijal/spotmap/internal/core/ports"
	"github.com/samirrijal/spotmap/internal/core/usecases"
	"github.com/samirrijal/spotmap/internal/pkg/config"
	"github.com/samirrijal/spotmap/internal/pkg/logging"
	"github.com/samirrijal/spotmap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("spotmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache and events are optional: the API degrades to uncached reads and
	// unpublished events.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	geocoder := nominatim.New(nominatim.Options{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   time.Duration(cfg.Geocoder.TimeoutSeconds) * time.Second,
	})

	tagSvc := usecases.NewTagService(
		postgres.NewTagRepo(db),
		postgres.NewUserActionRepo(db),
		postgres.NewSpotTagRepo(db),
	)
	spotSvc := usecases.NewSpotService(postgres.NewSpotRepo(db), tagSvc, cacheSvc, events, cfg.Spots.MaxDistanceKm)
	placeSvc := usecases.NewPlaceService(geocoder, cacheSvc)

	deps := &http.Dependencies{
		Spots:  spotSvc,
		Tags:   tagSvc,
		Places: placeSvc,
		NATS:   natsConn,
		DB:     db,
		Cache:  cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Spotmap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000, http://localhost:5173",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

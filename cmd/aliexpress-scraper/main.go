package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/api"
	"github.com/maltedev/aliexpress-scraper/internal/assets"
	"github.com/maltedev/aliexpress-scraper/internal/browser"
	"github.com/maltedev/aliexpress-scraper/internal/config"
	"github.com/maltedev/aliexpress-scraper/internal/database"
	"github.com/maltedev/aliexpress-scraper/internal/events"
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/ratelimit"
	"github.com/maltedev/aliexpress-scraper/internal/scraper"
	"github.com/maltedev/aliexpress-scraper/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:   cfg.Telemetry.ServiceName,
		TraceEndpoint: cfg.Telemetry.TraceEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	m := metrics.New()

	store := assets.NewStore(cfg.AssetsConfig(), m, logger)

	// One manager per adapter: each carries its own fingerprint.
	sessionCfg := cfg.SessionConfig()
	productBrowser, err := browser.NewManager(sessionCfg, m, logger)
	if err != nil {
		return err
	}
	defer closeManager(productBrowser, logger)

	priceBrowser, err := browser.NewManager(scraper.PriceSessionConfig(sessionCfg), m, logger)
	if err != nil {
		return err
	}
	defer closeManager(priceBrowser, logger)

	trackingBrowser, err := browser.NewManager(scraper.TrackingSessionConfig(sessionCfg), m, logger)
	if err != nil {
		return err
	}
	defer closeManager(trackingBrowser, logger)

	products := scraper.NewProductAdapter(scraper.FromManager(productBrowser), store, m, logger)
	prices := scraper.NewPriceUpdater(scraper.FromManager(priceBrowser), m, logger)
	if cfg.Prices.ItemDelayMax > 0 {
		prices.SetRateLimiter(ratelimit.NewAdaptiveRateLimiter(cfg.Prices.ItemDelayMin, cfg.Prices.ItemDelayMax))
	}
	tracking := scraper.NewTrackingAdapter(scraper.FromManager(trackingBrowser),
		cfg.Tracking.CacheSize, cfg.Tracking.CacheTTL, m, logger)

	handlers := api.NewHandlers(products, prices, tracking, store, logger)

	if cfg.Database.Enabled {
		db, err := database.New(ctx, cfg.DatabaseConfig())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}

		publisher := events.NewPublisher(db, logger)
		products.SetPublisher(publisher)
		prices.SetPublisher(publisher)
		tracking.SetPublisher(publisher)

		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}

		relay := database.NewRelay(database.NewOutboxRepository(db), redisClient, logger, database.RelayConfig{
			PollInterval: cfg.Relay.PollInterval,
			BatchSize:    cfg.Relay.BatchSize,
		})
		handlers.SetBacklog(relay)

		go func() {
			if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("relay stopped with error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(handlers, api.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			Registry:       m.Registry,
			AssetsDir:      cfg.Assets.Dir,
			AssetsPrefix:   cfg.Assets.PublicPrefix,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr, "db_enabled", cfg.Database.Enabled)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func closeManager(m *browser.Manager, logger *slog.Logger) {
	if err := m.Close(); err != nil {
		logger.Error("failed to stop browser driver", "error", err)
	}
}

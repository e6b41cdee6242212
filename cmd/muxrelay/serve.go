package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/valinor-ai/muxrelay/internal/deliveries"
	"github.com/valinor-ai/muxrelay/internal/platform/config"
	"github.com/valinor-ai/muxrelay/internal/platform/database"
	"github.com/valinor-ai/muxrelay/internal/platform/metrics"
	"github.com/valinor-ai/muxrelay/internal/platform/server"
	"github.com/valinor-ai/muxrelay/internal/platform/telemetry"
	"github.com/valinor-ai/muxrelay/internal/relay"
	"github.com/valinor-ai/muxrelay/internal/webhook"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func run(ctx context.Context, configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logging
	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	telemetry.SetDefault(logger)

	slog.Info("muxrelay starting",
		"version", version,
		"port", cfg.Server.Port,
	)

	// A bad signing secret is fatal before anything listens.
	verifier, err := webhook.NewMuxVerifier(cfg.Mux.SigningSecret)
	if err != nil {
		return fmt.Errorf("configuring webhook verifier: %w", err)
	}

	var pool *database.Pool
	if cfg.Deliveries.Enabled {
		pool, err = connectDeliveriesDatabase(ctx, cfg.Database)
		if err != nil {
			slog.Warn("database connection failed, starting without delivery log", "error", err)
		} else {
			defer pool.Close()
		}
	}

	var deliveryLog deliveries.Logger = deliveries.NopLogger{}
	var retentionWorker *deliveryRetentionWorker
	if pool != nil {
		asyncLogger := deliveries.NewAsyncLogger(pool, deliveries.NewStore(), deliveries.LoggerConfig{
			BufferSize:    cfg.Deliveries.BufferSize,
			BatchSize:     cfg.Deliveries.BatchSize,
			FlushInterval: time.Duration(cfg.Deliveries.FlushIntervalMillis) * time.Millisecond,
		})
		deliveryLog = asyncLogger
		retentionWorker = buildDeliveryRetentionWorker(pool, cfg.Deliveries)
		slog.Info("delivery log started")
	}
	defer deliveryLog.Close()

	m := metrics.New()
	notifier, err := buildNotifier(cfg.Telegram, nil, m)
	if err != nil {
		return fmt.Errorf("configuring notifier: %w", err)
	}

	relayHandler := relay.NewHandler(verifier, notifier, relay.HandlerConfig{
		ForwardUnverified: cfg.Relay.ForwardUnverified,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
	}).WithDeliveryLog(deliveryLog).WithMetrics(m)

	if cfg.Relay.ForwardUnverified {
		slog.Warn("relaying webhooks that fail signature verification")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := server.New(addr, server.Dependencies{
		Pool:             pool,
		RelayHandler:     relayHandler,
		Metrics:          m,
		Logger:           logger,
		DatabaseRequired: cfg.Deliveries.Enabled,
	})

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	if retentionWorker != nil {
		g.Go(func() error {
			return retentionWorker.Run(ctx)
		})
	}

	slog.Info("server ready", "addr", addr, "webhook_path", server.WebhookPath)
	return g.Wait()
}

func connectDeliveriesDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required when the delivery log is enabled")
	}

	slog.Info("connecting to database")
	pool, err := database.Connect(ctx, cfg.URL, cfg.MaxConns)
	if err != nil {
		return nil, err
	}

	migrationsURL := fmt.Sprintf("file://%s", cfg.MigrationsPath)
	if err := database.RunMigrations(cfg.URL, migrationsURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("migrations complete")
	return pool, nil
}

// buildNotifier returns the Telegram notifier behind a circuit breaker, or
// a no-op notifier when Telegram is disabled.
func buildNotifier(cfg config.TelegramConfig, client *http.Client, m *metrics.Metrics) (relay.Notifier, error) {
	if !cfg.Enabled {
		slog.Warn("telegram notifier disabled, events will be acknowledged without relaying")
		return relay.NopNotifier{}, nil
	}

	telegram, err := newTelegramNotifier(cfg, client)
	if err != nil {
		return nil, err
	}
	slog.Info("telegram notifier enabled", "chat_id", telegram.chatID)
	return newBreakerNotifier("telegram", telegram, cfg.Breaker, m), nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"job-dashboard/internal/config"
	"job-dashboard/pkg/database"
	"job-dashboard/pkg/mq"
	"job-dashboard/pkg/observability"
	"job-dashboard/pkg/outbox"
)

func main() {
	cfg, err := config.Load(os.Getenv("JOBDASH_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(nil, cfg.Logging.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := database.New(ctx, database.Config{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}
	defer dbClient.Close()

	mqClient, err := mq.New(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		return
	}
	defer mqClient.Close()

	// Ensure topology exists; safe if already declared
	if err := mqClient.SetupTopology(); err != nil {
		logger.Error("failed to setup rabbitmq topology", "error", err)
		return
	}

	if cfg.Metrics.Enabled {
		observability.StartMetricsServer(cfg.Metrics.Addr)
	}

	logger.Info("outbox relay starting", "interval", cfg.Publisher.Interval, "batch_size", cfg.Publisher.BatchSize)
	outbox.NewRelay(dbClient, mqClient, cfg.Publisher.BatchSize, logger).Run(ctx, cfg.Publisher.Interval)
	logger.Info("outbox relay stopped")
}

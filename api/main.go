package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"job-dashboard/internal/config"
	"job-dashboard/internal/server"
	"job-dashboard/pkg/database"
	"job-dashboard/pkg/memstore"
	"job-dashboard/pkg/observability"
)

func main() {
	cmd := &cobra.Command{
		Use:          "api",
		Short:        "Serve the job API used by the dashboard",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			overrides := map[string]any{}
			if cmd.Flags().Changed("memory") {
				overrides["memory"], _ = cmd.Flags().GetBool("memory")
			}
			cfg, err := config.Load(cfgFile, overrides)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("config", "", "Config file")
	cmd.Flags().Bool("memory", false, "Keep jobs in memory instead of Postgres")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(nil, cfg.Logging.Level)
	slog.SetDefault(logger)

	var store server.Store
	if cfg.Memory {
		logger.Info("using in-memory job store")
		store = memstore.New()
	} else {
		db, err := database.New(ctx, database.Config{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return err
		}
		defer db.Close()

		// In a real deployment a migration tool owns the schema.
		if err := db.InitSchema(ctx); err != nil {
			logger.Error("failed to initialize schema", "error", err)
			return err
		}
		store = db
	}

	if cfg.Metrics.Enabled {
		observability.StartMetricsServer(cfg.Metrics.Addr)
	}

	api, err := server.New(store, logger)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting", "addr", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("api server failed", "error", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

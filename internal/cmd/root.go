// Package cmd implements the jobdash command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"job-dashboard/internal/config"
	"job-dashboard/pkg/client"
	"job-dashboard/pkg/dashboard"
	"job-dashboard/pkg/observability"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// app holds what the root command resolves before a subcommand runs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "jobdash",
		Short: "Watch and manage scheduler jobs from the terminal",
		Long: `jobdash shows the job scheduler's jobs, filtered by status and priority,
and refreshes them on an interval while it is open. Jobs can be created,
run and deleted; after each change the list is reloaded from the service.

Examples:
  # Interactive dashboard
  jobdash tui

  # Print pending jobs once
  jobdash list --status pending

  # Keep printing completed High jobs every 4s
  jobdash watch --status completed --priority High`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default ./jobdash.yaml when present)")
	pf.String("api-url", "", "Job API base URL")
	pf.Duration("interval", 0, "Poll interval for watch and tui")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newCreateCmd(a),
		newRunCmd(a),
		newDeleteCmd(a),
		newWatchCmd(a),
		newTUICmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	cfgFile, _ := flags.GetString("config")

	dash := map[string]any{}
	if flags.Changed("api-url") {
		v, _ := flags.GetString("api-url")
		dash["api_url"] = v
	}
	if flags.Changed("interval") {
		v, _ := flags.GetDuration("interval")
		dash["poll_interval"] = v.String()
	}
	overrides := map[string]any{"dashboard": dash}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		overrides["logging"] = map[string]any{"level": v}
	}

	cfg, err := config.Load(cfgFile, overrides)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var w io.Writer = cmd.ErrOrStderr()
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		w = f
	}
	a.logger = observability.NewLogger(w, cfg.Logging.Level)
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) client() (*client.Client, error) {
	return client.New(a.cfg.Dashboard.APIURL, client.WithRateLimit(a.cfg.Dashboard.RateLimit))
}

func (a *app) dashboardOptions(c dashboard.Confirmer, extra ...dashboard.SyncerOption) dashboard.Options {
	return dashboard.Options{
		Confirmer: c,
		Logger:    a.logger,
		Syncer: append([]dashboard.SyncerOption{
			dashboard.WithPollInterval(a.cfg.Dashboard.PollInterval),
			dashboard.WithRequestTimeout(a.cfg.Dashboard.RequestTimeout),
		}, extra...),
	}
}

func (a *app) dashboard(c dashboard.Confirmer, extra ...dashboard.SyncerOption) (*dashboard.Dashboard, error) {
	cl, err := a.client()
	if err != nil {
		return nil, err
	}
	return dashboard.New(cl, a.dashboardOptions(c, extra...)), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "jobdash "+Version)
		},
	}
}

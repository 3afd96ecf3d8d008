package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"job-dashboard/internal/tui"
	"job-dashboard/pkg/observability"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive dashboard",
		Long: `Open the interactive dashboard. Logs go to logging.file when it is set
and are dropped otherwise.

Keys:
  j/k      move          s  cycle status filter    p  cycle priority filter
  r        run job       d  delete job             n  new job
  g        refresh       q  quit`,
		Args: cobra.NoArgs,
		RunE: a.runTUI,
	}
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	if a.logFile == nil {
		a.logger = observability.NewLogger(io.Discard, a.cfg.Logging.Level)
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), c, a.dashboardOptions(nil))
}

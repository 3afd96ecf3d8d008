package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"job-dashboard/pkg/dashboard"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the job list on every refresh",
		Long: `Keep the filtered job list up to date and print it after each refresh
until interrupted. A failed refresh keeps the last list and says so.

Examples:
  jobdash watch
  jobdash watch --status running --interval 2s`,
		Args: cobra.NoArgs,
		RunE: a.runWatch,
	}
	addFilterFlags(cmd)
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	var mu sync.Mutex
	render := func(s dashboard.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		printSnapshot(out, s)
	}

	d, err := a.dashboard(nil, dashboard.WithOnUpdate(render))
	if err != nil {
		return err
	}
	if err := applyFilterFlags(cmd, d); err != nil {
		return err
	}

	a.logger.Info("watching jobs", "filter", d.Filter.Selection().String(), "interval", a.cfg.Dashboard.PollInterval)
	d.Activate()
	<-cmd.Context().Done()
	d.Deactivate()
	return nil
}

func printSnapshot(w io.Writer, s dashboard.Snapshot) {
	updated := "never"
	if !s.FetchedAt.IsZero() {
		updated = s.FetchedAt.Local().Format(timeLayout)
	}
	_, _ = fmt.Fprintf(w, "\n== jobs (%s) updated %s\n", s.Filter.String(), updated)
	if s.Err != nil {
		_, _ = fmt.Fprintf(w, "refresh failed, showing last known list: %v\n", s.Err)
	}
	_ = printRowsTable(w, dashboard.BuildRows(s.Jobs))
}

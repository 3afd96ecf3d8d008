package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"job-dashboard/pkg/dashboard"
	"job-dashboard/pkg/job"
)

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs once",
		Long: `List jobs matching the status and priority filters, newest first.

Examples:
  jobdash list
  jobdash list --status pending --priority High
  jobdash list --json`,
		Args: cobra.NoArgs,
		RunE: a.runList,
	}
	addFilterFlags(cmd)
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	d, err := a.dashboard(nil)
	if err != nil {
		return err
	}
	if err := applyFilterFlags(cmd, d); err != nil {
		return err
	}
	if err := d.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), d.Snapshot().Jobs)
	}
	return printRowsTable(cmd.OutOrStdout(), d.Rows())
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("status", "", "Filter by status: pending, running, completed (default all)")
	cmd.Flags().String("priority", "", "Filter by priority: Low, Medium, High (default all)")
}

// applyFilterFlags selects the filter before the view is activated, so no
// fetch is triggered yet.
func applyFilterFlags(cmd *cobra.Command, d *dashboard.Dashboard) error {
	rawStatus, _ := cmd.Flags().GetString("status")
	rawPriority, _ := cmd.Flags().GetString("priority")

	status, err := job.ParseStatus(rawStatus)
	if err != nil {
		return err
	}
	priority, err := job.ParsePriority(rawPriority)
	if err != nil {
		return err
	}
	if err := d.SetStatusFilter(status); err != nil {
		return err
	}
	return d.SetPriorityFilter(priority)
}

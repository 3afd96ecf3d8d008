package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"job-dashboard/pkg/dashboard"
	"job-dashboard/pkg/job"
)

func newShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runShow,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func (a *app) runShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	c, err := a.client()
	if err != nil {
		return err
	}
	j, err := c.GetJob(cmd.Context(), args[0])
	if errors.Is(err, job.ErrNotFound) {
		return fmt.Errorf("job %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), j)
	}
	return printRowDetail(cmd.OutOrStdout(), dashboard.BuildRow(*j))
}

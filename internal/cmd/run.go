package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"job-dashboard/pkg/job"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <job-id>",
		Short: "Run a pending job",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runRun,
	}
}

func (a *app) runRun(cmd *cobra.Command, args []string) error {
	id := args[0]
	d, err := a.dashboard(nil)
	if err != nil {
		return err
	}

	_, err = d.Run(cmd.Context(), id)
	switch {
	case errors.Is(err, job.ErrNotPending):
		return fmt.Errorf("job %s is not pending", id)
	case errors.Is(err, job.ErrNotFound):
		return fmt.Errorf("job %s not found", id)
	case err != nil:
		return fmt.Errorf("run job: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Job %s is now running\n", id)
	return nil
}

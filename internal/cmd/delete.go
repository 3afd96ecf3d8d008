package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"job-dashboard/pkg/dashboard"
	"job-dashboard/pkg/job"
)

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job",
		Long: `Delete a job after confirming on the terminal. Anything but y or yes
leaves the job untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runDelete,
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (a *app) runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	yes, _ := cmd.Flags().GetBool("yes")

	var confirm dashboard.Confirmer = promptConfirmer{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
	if yes {
		confirm = dashboard.AlwaysConfirm
	}
	d, err := a.dashboard(confirm)
	if err != nil {
		return err
	}

	deleted, err := d.Delete(cmd.Context(), id)
	switch {
	case errors.Is(err, job.ErrNotFound):
		return fmt.Errorf("job %s not found", id)
	case err != nil:
		return fmt.Errorf("delete job: %w", err)
	}
	if !deleted {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", id)
	return nil
}

// promptConfirmer asks on out and reads one answer line from in.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	_, _ = fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

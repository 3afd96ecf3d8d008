package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"job-dashboard/pkg/job"
	"job-dashboard/pkg/payload"
)

// jobDefinition is the file accepted by create --file.
type jobDefinition struct {
	TaskName string         `yaml:"taskName"`
	Priority string         `yaml:"priority"`
	Payload  []payload.Pair `yaml:"payload"`
}

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job",
		Long: `Create a job from flags or a YAML definition. Payload pairs are applied
in order and a later pair replaces an earlier one with the same key.
Flags are applied after the file.

Definition file:
  taskName: Generate Invoice
  priority: High
  payload:
    - key: region
      value: eu

Examples:
  jobdash create --task "Generate Invoice" --priority High --pair region=eu
  jobdash create --file invoice.yaml --pair region=us`,
		Args: cobra.NoArgs,
		RunE: a.runCreate,
	}
	cmd.Flags().String("task", "", "Task name")
	cmd.Flags().String("priority", "", "Priority: Low, Medium, High (default Medium)")
	cmd.Flags().StringArray("pair", nil, "Payload pair as key=value (repeatable)")
	cmd.Flags().StringP("file", "f", "", "YAML job definition")
	cmd.Flags().Bool("json", false, "Output the created job as JSON")
	return cmd
}

func (a *app) runCreate(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	jsonOutput, _ := flags.GetBool("json")

	var def jobDefinition
	if path, _ := flags.GetString("file"); path != "" {
		var err error
		if def, err = readDefinition(path); err != nil {
			return err
		}
	}
	if flags.Changed("task") {
		def.TaskName, _ = flags.GetString("task")
	}
	if flags.Changed("priority") {
		def.Priority, _ = flags.GetString("priority")
	}
	rawPairs, _ := flags.GetStringArray("pair")
	for _, raw := range rawPairs {
		p, err := parsePair(raw)
		if err != nil {
			return err
		}
		def.Payload = append(def.Payload, p)
	}

	priority, err := job.ParsePriority(def.Priority)
	if err != nil {
		return err
	}

	d, err := a.dashboard(nil)
	if err != nil {
		return err
	}
	for i, p := range def.Payload {
		if err := d.Builder.AddPair(p.Key, p.Value); err != nil {
			return fmt.Errorf("payload pair %d: %w", i+1, err)
		}
	}

	created, err := d.Create(cmd.Context(), def.TaskName, priority)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if created == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Job created")
		return nil
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), created)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created job %s (%s, %s)\n", created.ID, created.Priority, created.Status)
	return nil
}

func readDefinition(path string) (jobDefinition, error) {
	var def jobDefinition
	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read job definition: %w", err)
	}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parse job definition %s: %w", path, err)
	}
	return def, nil
}

func parsePair(raw string) (payload.Pair, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return payload.Pair{}, fmt.Errorf("invalid pair %q: want key=value", raw)
	}
	return payload.Pair{Key: key, Value: value}, nil
}

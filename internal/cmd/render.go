package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"job-dashboard/pkg/dashboard"
	"job-dashboard/pkg/job"
)

const timeLayout = "2006-01-02 15:04:05"

func printRowsTable(w io.Writer, rows []dashboard.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No jobs found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTASK\tPRIORITY\tSTATUS\tCREATED\tPAYLOAD\tACTIONS")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Job.ID,
			r.Job.TaskName,
			r.Job.Priority,
			r.Job.Status,
			formatCreated(r.Job),
			r.PayloadText(),
			formatActions(r.Actions),
		)
	}
	return tw.Flush()
}

func printRowDetail(w io.Writer, r dashboard.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID:\t%s\n", r.Job.ID)
	_, _ = fmt.Fprintf(tw, "Task:\t%s\n", r.Job.TaskName)
	_, _ = fmt.Fprintf(tw, "Priority:\t%s\n", r.Job.Priority)
	_, _ = fmt.Fprintf(tw, "Status:\t%s\n", r.Job.Status)
	_, _ = fmt.Fprintf(tw, "Created:\t%s\n", formatCreated(r.Job))
	if !r.Job.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(tw, "Updated:\t%s\n", r.Job.UpdatedAt.Local().Format(timeLayout))
	}
	_, _ = fmt.Fprintf(tw, "Actions:\t%s\n", formatActions(r.Actions))
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w, "Payload:")
	switch r.PayloadState {
	case dashboard.PayloadOK:
		for _, p := range r.Payload {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", p.Key, p.Value)
		}
	default:
		_, _ = fmt.Fprintf(w, "  %s\n", r.PayloadText())
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatCreated(j job.Job) string {
	if j.CreatedAt.IsZero() {
		return "-"
	}
	return j.CreatedAt.Local().Format(timeLayout)
}

func formatActions(actions []dashboard.Action) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ",")
}

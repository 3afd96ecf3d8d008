package tui

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"job-dashboard/pkg/dashboard"
	"job-dashboard/pkg/job"
)

const timeLayout = "2006-01-02 15:04:05"

func (m Model) View() string {
	var b strings.Builder

	sel := m.dash.Filter.Selection()
	fmt.Fprintf(&b, "Jobs  status: %s  priority: %s", orAll(string(sel.Status)), orAll(string(sel.Priority)))
	if !m.snap.FetchedAt.IsZero() {
		fmt.Fprintf(&b, "  updated %s", m.snap.FetchedAt.Local().Format("15:04:05"))
	}
	b.WriteString("\n")
	if m.snap.Err != nil {
		fmt.Fprintf(&b, "! refresh failed, showing last known list: %v\n", m.snap.Err)
	}
	b.WriteString("\n")

	switch m.mode {
	case modeForm:
		m.renderForm(&b)
	default:
		m.renderList(&b)
	}

	b.WriteString("\n")
	if m.mode == modeConfirmDelete {
		fmt.Fprintf(&b, "%s (job %s) [y/N]\n", dashboard.DeletePrompt, m.deleteID)
	}
	if m.errText != "" {
		b.WriteString("Error: " + m.errText + "\n")
	} else if m.notice != "" {
		b.WriteString(m.notice + "\n")
	}
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Model) renderList(b *strings.Builder) {
	if len(m.rows) == 0 {
		b.WriteString("No jobs found\n")
		return
	}
	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  \tTASK\tPRIORITY\tSTATUS\tCREATED\tPAYLOAD")
	for i, r := range m.rows {
		marker := " "
		if i == m.cursor {
			marker = ">"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			marker, r.Job.TaskName, r.Job.Priority, r.Job.Status, formatTime(r.Job), r.PayloadText())
	}
	_ = tw.Flush()
}

func (m Model) renderForm(b *strings.Builder) {
	key, value := m.dash.Builder.Draft()
	fields := []struct {
		label string
		value string
	}{
		{"Task", m.formTask},
		{"Key", key},
		{"Value", value},
	}

	b.WriteString("New job\n\n")
	for i, f := range fields {
		prefix := "  "
		cursor := ""
		if i == m.formFocus {
			prefix = "> "
			cursor = "_"
		}
		fmt.Fprintf(b, "%s%-6s %s%s\n", prefix, f.label+":", f.value, cursor)
	}
	fmt.Fprintf(b, "  %-6s %s\n", "Prio:", m.formPriority)

	pairs := m.dash.Builder.Pairs()
	b.WriteString("\nPayload:\n")
	if len(pairs) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, p := range pairs {
		fmt.Fprintf(b, "  %d. %s = %s\n", i+1, p.Key, p.Value)
	}
	if m.busy {
		b.WriteString("\nSaving...\n")
	}
}

func (m Model) helpLine() string {
	switch m.mode {
	case modeForm:
		return "tab next field  enter add pair  ctrl+r remove last pair  ctrl+p priority  ctrl+s create  esc back"
	case modeConfirmDelete:
		return "y delete  n cancel"
	}
	keys := []string{"j/k move", "s status", "p priority"}
	if row, ok := m.selected(); ok {
		if row.Can(dashboard.ActionRun) {
			keys = append(keys, "r run")
		}
		keys = append(keys, "d delete")
	}
	keys = append(keys, "n new", "g refresh", "q quit")
	return strings.Join(keys, "  ")
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func formatTime(j job.Job) string {
	if j.CreatedAt.IsZero() {
		return "-"
	}
	return j.CreatedAt.Local().Format(timeLayout)
}

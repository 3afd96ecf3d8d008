// Package tui is the interactive terminal dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"job-dashboard/pkg/dashboard"
	"job-dashboard/pkg/job"
	"job-dashboard/pkg/payload"
)

// --- Messages ---

type snapshotMsg dashboard.Snapshot
type activatedMsg struct{}
type filterAppliedMsg struct{ err error }
type mutationDoneMsg struct {
	op   string
	id   string
	err  error
	note string
}

type mode int

const (
	modeList mode = iota
	modeConfirmDelete
	modeForm
)

const (
	formFieldTask = iota
	formFieldKey
	formFieldValue
	formFieldCount
)

var statusCycle = []job.Status{"", job.StatusPending, job.StatusRunning, job.StatusCompleted}
var priorityCycle = []job.Priority{"", job.PriorityLow, job.PriorityMedium, job.PriorityHigh}

// --- Model ---

type Model struct {
	ctx  context.Context
	dash *dashboard.Dashboard

	snap   dashboard.Snapshot
	rows   []dashboard.Row
	cursor int
	mode   mode
	width  int

	// busy is set while a mutation owns the builder
	busy     bool
	deleteID string
	notice   string
	errText  string

	// create form; the draft pair lives in dash.Builder
	formFocus    int
	formTask     string
	formPriority job.Priority
}

func New(ctx context.Context, d *dashboard.Dashboard) Model {
	return Model{
		ctx:          ctx,
		dash:         d,
		formPriority: job.DefaultPriority,
	}
}

func (m Model) Init() tea.Cmd {
	d := m.dash
	return func() tea.Msg {
		d.Activate()
		return activatedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		m.applySnapshot(dashboard.Snapshot(msg))
		return m, nil

	case activatedMsg:
		return m, nil

	case filterAppliedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		}
		return m, nil

	case mutationDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = describeError(msg.op, msg.id, msg.err)
			m.notice = ""
			return m, nil
		}
		m.errText = ""
		m.notice = msg.note
		if msg.op == "create" {
			m.formTask = ""
			m.formFocus = formFieldTask
			m.mode = modeList
		}
		return m, nil

	case tea.KeyMsg:
		if isKey(msg, "ctrl+c") {
			return m, tea.Quit
		}
		switch m.mode {
		case modeConfirmDelete:
			return m.handleConfirmKeys(msg)
		case modeForm:
			return m.handleFormKeys(msg)
		default:
			return m.handleListKeys(msg)
		}
	}
	return m, nil
}

func (m *Model) applySnapshot(s dashboard.Snapshot) {
	m.snap = s
	m.rows = dashboard.BuildRows(s.Jobs)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (dashboard.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return dashboard.Row{}, false
	}
	return m.rows[m.cursor], true
}

// --- List ---

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case isKey(msg, "q"):
		return m, tea.Quit
	case isKey(msg, "down", "j"):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case isKey(msg, "up", "k"):
		if m.cursor > 0 {
			m.cursor--
		}
	case isKey(msg, "s"):
		next := nextStatus(m.dash.Filter.Selection().Status)
		d := m.dash
		return m, func() tea.Msg { return filterAppliedMsg{err: d.SetStatusFilter(next)} }
	case isKey(msg, "p"):
		next := nextPriority(m.dash.Filter.Selection().Priority)
		d := m.dash
		return m, func() tea.Msg { return filterAppliedMsg{err: d.SetPriorityFilter(next)} }
	case isKey(msg, "g"):
		d, ctx := m.dash, m.ctx
		return m, func() tea.Msg {
			if err := d.Refresh(ctx); err != nil && !errors.Is(err, dashboard.ErrStopped) {
				return mutationDoneMsg{op: "refresh", err: err}
			}
			return nil
		}
	case isKey(msg, "r"):
		row, ok := m.selected()
		if !ok || m.busy || !row.Can(dashboard.ActionRun) {
			return m, nil
		}
		m.busy = true
		return m, m.runJob(row.Job.ID)
	case isKey(msg, "d"):
		row, ok := m.selected()
		if !ok || m.busy {
			return m, nil
		}
		m.deleteID = row.Job.ID
		m.mode = modeConfirmDelete
	case isKey(msg, "n"):
		m.mode = modeForm
		m.errText = ""
		m.notice = ""
	}
	return m, nil
}

func (m Model) runJob(id string) tea.Cmd {
	d, ctx := m.dash, m.ctx
	return func() tea.Msg {
		_, err := d.Run(ctx, id)
		return mutationDoneMsg{op: "run", id: id, err: err, note: "Run requested for " + id}
	}
}

// --- Delete confirmation ---

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case isKey(msg, "y", "Y"):
		id := m.deleteID
		m.deleteID = ""
		m.mode = modeList
		m.busy = true
		d, ctx := m.dash, m.ctx
		return m, func() tea.Msg {
			deleted, err := d.Delete(ctx, id)
			note := "Deleted " + id
			if err == nil && !deleted {
				note = "Delete cancelled"
			}
			return mutationDoneMsg{op: "delete", id: id, err: err, note: note}
		}
	case isKey(msg, "n", "N", "esc", "q"):
		m.deleteID = ""
		m.mode = modeList
		m.notice = "Delete cancelled"
	}
	return m, nil
}

// --- Create form ---

func (m Model) handleFormKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	b := m.dash.Builder
	key, value := b.Draft()

	switch {
	case isKey(msg, "esc"):
		m.mode = modeList
	case isKey(msg, "tab", "down"):
		m.formFocus = (m.formFocus + 1) % formFieldCount
	case isKey(msg, "shift+tab", "up"):
		m.formFocus = (m.formFocus - 1 + formFieldCount) % formFieldCount
	case isKey(msg, "ctrl+p"):
		m.formPriority = nextCreatePriority(m.formPriority)
	case isKey(msg, "enter"):
		if m.formFocus == formFieldTask {
			m.formFocus = formFieldKey
			return m, nil
		}
		if err := b.CommitDraft(); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.errText = ""
		m.formFocus = formFieldKey
	case isKey(msg, "ctrl+r"):
		b.RemovePair(b.Len() - 1)
	case isKey(msg, "ctrl+s"):
		return m.submit()
	case isKey(msg, "backspace"):
		switch m.formFocus {
		case formFieldTask:
			m.formTask = dropLast(m.formTask)
		case formFieldKey:
			b.SetDraft(dropLast(key), value)
		case formFieldValue:
			b.SetDraft(key, dropLast(value))
		}
	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
		switch m.formFocus {
		case formFieldTask:
			m.formTask += text
		case formFieldKey:
			b.SetDraft(key+text, value)
		case formFieldValue:
			b.SetDraft(key, value+text)
		}
	}
	return m, nil
}

func (m Model) submit() (Model, tea.Cmd) {
	if strings.TrimSpace(m.formTask) == "" {
		m.errText = "Task name is required"
		return m, nil
	}
	m.busy = true
	m.errText = ""
	d, ctx := m.dash, m.ctx
	task, priority := m.formTask, m.formPriority
	return m, func() tea.Msg {
		created, err := d.Create(ctx, task, priority)
		note := ""
		if created != nil {
			note = "Created " + created.ID
		}
		return mutationDoneMsg{op: "create", err: err, note: note}
	}
}

// --- Helpers ---

func isKey(msg tea.KeyMsg, keys ...string) bool {
	s := msg.String()
	for _, k := range keys {
		if s == k {
			return true
		}
	}
	return false
}

func dropLast(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

func nextStatus(s job.Status) job.Status {
	for i, v := range statusCycle {
		if v == s {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return ""
}

func nextPriority(p job.Priority) job.Priority {
	for i, v := range priorityCycle {
		if v == p {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return ""
}

// nextCreatePriority skips the unset entry; a new job always has a priority.
func nextCreatePriority(p job.Priority) job.Priority {
	next := nextPriority(p)
	if next == "" {
		next = nextPriority(next)
	}
	return next
}

func describeError(op, id string, err error) string {
	var verr *job.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, payload.ErrEmptyPair):
		return err.Error()
	case errors.Is(err, job.ErrNotPending):
		return fmt.Sprintf("job %s is no longer pending", id)
	case errors.Is(err, job.ErrNotFound):
		return fmt.Sprintf("job %s no longer exists", id)
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}

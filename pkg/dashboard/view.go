package dashboard

import (
	"sort"
	"strings"

	"job-dashboard/pkg/job"
	"job-dashboard/pkg/payload"
)

type PayloadState int

const (
	PayloadOK PayloadState = iota
	PayloadEmpty
	PayloadMalformed
)

func (s PayloadState) String() string {
	switch s {
	case PayloadEmpty:
		return "empty"
	case PayloadMalformed:
		return "malformed"
	default:
		return "ok"
	}
}

type Action string

const (
	ActionRun    Action = "run"
	ActionDelete Action = "delete"
)

// Row is a job prepared for display.
type Row struct {
	Job          job.Job
	Payload      []payload.Pair // sorted by key
	PayloadState PayloadState
	Actions      []Action
}

// AvailableActions lists what the control surface offers for j. Run is only
// offered while the job is pending.
func AvailableActions(j job.Job) []Action {
	if j.Status == job.StatusPending {
		return []Action{ActionRun, ActionDelete}
	}
	return []Action{ActionDelete}
}

func (r Row) Can(a Action) bool {
	for _, v := range r.Actions {
		if v == a {
			return true
		}
	}
	return false
}

// BuildRow decodes the payload of j. A payload that fails to decode marks
// only this row as malformed.
func BuildRow(j job.Job) Row {
	r := Row{Job: j, Actions: AvailableActions(j)}

	decoded, err := job.DecodePayload(j.Payload)
	switch {
	case err != nil:
		r.PayloadState = PayloadMalformed
	case len(decoded) == 0:
		r.PayloadState = PayloadEmpty
	default:
		r.Payload = make([]payload.Pair, 0, len(decoded))
		for k, v := range decoded {
			r.Payload = append(r.Payload, payload.Pair{Key: k, Value: v})
		}
		sort.Slice(r.Payload, func(a, b int) bool { return r.Payload[a].Key < r.Payload[b].Key })
	}
	return r
}

func BuildRows(jobs []job.Job) []Row {
	rows := make([]Row, len(jobs))
	for i, j := range jobs {
		rows[i] = BuildRow(j)
	}
	return rows
}

// PayloadText is the one-line rendering of the row's payload.
func (r Row) PayloadText() string {
	switch r.PayloadState {
	case PayloadMalformed:
		return "malformed payload"
	case PayloadEmpty:
		return "No data"
	}
	parts := make([]string, len(r.Payload))
	for i, p := range r.Payload {
		parts[i] = p.Key + ": " + p.Value
	}
	return strings.Join(parts, ", ")
}

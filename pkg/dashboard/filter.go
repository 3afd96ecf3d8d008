package dashboard

import (
	"fmt"
	"sync"

	"job-dashboard/pkg/job"
)

// FilterState holds the status and priority selections. Every change is
// reported to onChange right away; writing the current value is not a change.
type FilterState struct {
	mu       sync.Mutex
	sel      job.Filter
	onChange func(job.Filter)
}

func NewFilterState(onChange func(job.Filter)) *FilterState {
	return &FilterState{onChange: onChange}
}

func (f *FilterState) Selection() job.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sel
}

// SetStatus selects a status; the empty status clears the constraint. It
// reports whether the selection changed.
func (f *FilterState) SetStatus(s job.Status) (bool, error) {
	if s != "" && !s.Valid() {
		return false, &job.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
	}
	return f.update(func(sel *job.Filter) { sel.Status = s }), nil
}

// SetPriority selects a priority; the empty priority clears the constraint.
// It reports whether the selection changed.
func (f *FilterState) SetPriority(p job.Priority) (bool, error) {
	if p != "" && !p.Valid() {
		return false, &job.ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", p)}
	}
	return f.update(func(sel *job.Filter) { sel.Priority = p }), nil
}

func (f *FilterState) update(apply func(*job.Filter)) bool {
	f.mu.Lock()
	before := f.sel
	apply(&f.sel)
	after := f.sel
	f.mu.Unlock()

	if after == before {
		return false
	}
	if f.onChange != nil {
		f.onChange(after)
	}
	return true
}

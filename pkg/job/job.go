package job

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string
type Priority string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// DefaultPriority is used when a create request leaves the priority unset.
const DefaultPriority = PriorityMedium

var (
	Statuses   = []Status{StatusPending, StatusRunning, StatusCompleted}
	Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}
)

var (
	ErrNotFound   = errors.New("job not found")
	ErrNotPending = errors.New("job is not pending")
)

type Job struct {
	ID        string    `json:"id"`
	TaskName  string    `json:"taskName"`
	Priority  Priority  `json:"priority"`
	Status    Status    `json:"status"`
	Payload   string    `json:"payload"` // encoded JSON object, see DecodePayload
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	TaskName string            `json:"taskName"`
	Priority Priority          `json:"priority"`
	Payload  map[string]string `json:"payload"`
}

// Filter narrows a job listing. A zero field places no constraint.
type Filter struct {
	Status   Status
	Priority Priority
}

func (f Filter) Matches(j Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.Priority != "" && j.Priority != f.Priority {
		return false
	}
	return true
}

func (f Filter) String() string {
	status, priority := string(f.Status), string(f.Priority)
	if status == "" {
		status = "all"
	}
	if priority == "" {
		priority = "all"
	}
	return fmt.Sprintf("status=%s priority=%s", status, priority)
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// ParseStatus matches s case-insensitively. An empty string yields the unset status.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	for _, v := range Statuses {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
}

// ParsePriority matches s case-insensitively. An empty string yields the unset priority.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	for _, v := range Priorities {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", s)}
}

// ValidationError reports input rejected before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks a create request and fills in the default priority.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.TaskName) == "" {
		return &ValidationError{Field: "taskName", Message: "task name is required"}
	}
	if r.Priority == "" {
		r.Priority = DefaultPriority
	}
	if !r.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", r.Priority)}
	}
	if r.Payload == nil {
		r.Payload = map[string]string{}
	}
	return nil
}

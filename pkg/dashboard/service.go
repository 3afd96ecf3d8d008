// Package dashboard keeps a locally rendered job list in step with the
// scheduler. The list is only ever replaced by a fresh server response:
// mutations are sent, then the list is reloaded, never patched in place.
package dashboard

import (
	"context"

	"job-dashboard/pkg/job"
)

// Lister fetches the filtered job list.
type Lister interface {
	ListJobs(ctx context.Context, f job.Filter) ([]job.Job, error)
}

// Service is the subset of the scheduler API the dashboard drives.
// *client.Client satisfies it.
type Service interface {
	Lister
	CreateJob(ctx context.Context, req job.CreateRequest) (*job.Job, error)
	RunJob(ctx context.Context, id string) (*job.Job, error)
	DeleteJob(ctx context.Context, id string) error
}

// Confirmer asks the user to acknowledge a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm accepts every prompt. Used for --yes.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

package dashboard

import (
	"context"
	"errors"
	"log/slog"

	"job-dashboard/pkg/job"
	"job-dashboard/pkg/observability"
	"job-dashboard/pkg/payload"
)

// DeletePrompt is shown before a job is deleted.
const DeletePrompt = "Delete this job?"

// Refresher reloads the job list.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Dispatcher sends create, run and delete requests. Each completed request is
// followed by a refresh; the cached list is never edited locally.
type Dispatcher struct {
	svc       Service
	refresher Refresher
	confirm   Confirmer
	logger    *slog.Logger
}

func NewDispatcher(svc Service, r Refresher, c Confirmer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{svc: svc, refresher: r, confirm: c, logger: logger}
}

// Create submits a job built from taskName, priority and the builder's
// finalized payload. A blank task name is rejected before any request. The
// builder is reset only once the service has accepted the job.
func (d *Dispatcher) Create(ctx context.Context, taskName string, priority job.Priority, b *payload.Builder) (*job.Job, error) {
	if b == nil {
		b = payload.NewBuilder()
	}
	req := job.CreateRequest{
		TaskName: taskName,
		Priority: priority,
		Payload:  b.Finalize(),
	}
	if err := req.Validate(); err != nil {
		observability.DashboardMutations.WithLabelValues("create", "invalid").Inc()
		return nil, err
	}

	created, err := d.svc.CreateJob(ctx, req)
	d.record("create", err)
	d.refresh(ctx, "create")
	if err != nil {
		d.logger.Error("create job failed", "task_name", req.TaskName, "error", err)
		return nil, err
	}

	b.Reset()
	if created != nil {
		d.logger.Info("job created", "job_id", created.ID, "task_name", created.TaskName, "priority", created.Priority)
	}
	return created, nil
}

// Run asks the service to start a job. Only offer it for pending jobs.
func (d *Dispatcher) Run(ctx context.Context, id string) (*job.Job, error) {
	updated, err := d.svc.RunJob(ctx, id)
	d.record("run", err)
	d.refresh(ctx, "run")
	if err != nil {
		d.logger.Error("run job failed", "job_id", id, "error", err)
		return nil, err
	}
	d.logger.Info("job run requested", "job_id", id)
	return updated, nil
}

// Delete removes a job after the Confirmer agrees. A declined or missing
// confirmation sends nothing and reports false.
func (d *Dispatcher) Delete(ctx context.Context, id string) (bool, error) {
	if d.confirm == nil {
		return false, nil
	}
	ok, err := d.confirm.Confirm(ctx, DeletePrompt)
	if err != nil {
		return false, err
	}
	if !ok {
		observability.DashboardMutations.WithLabelValues("delete", "declined").Inc()
		return false, nil
	}

	err = d.svc.DeleteJob(ctx, id)
	d.record("delete", err)
	d.refresh(ctx, "delete")
	if err != nil {
		d.logger.Error("delete job failed", "job_id", id, "error", err)
		return false, err
	}
	d.logger.Info("job deleted", "job_id", id)
	return true, nil
}

func (d *Dispatcher) record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.DashboardMutations.WithLabelValues(op, result).Inc()
}

func (d *Dispatcher) refresh(ctx context.Context, op string) {
	if d.refresher == nil {
		return
	}
	if err := d.refresher.Refresh(ctx); err != nil && !errors.Is(err, ErrStopped) {
		d.logger.Warn("refresh after mutation failed", "op", op, "error", err)
	}
}

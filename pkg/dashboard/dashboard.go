package dashboard

import (
	"context"
	"log/slog"

	"job-dashboard/pkg/job"
	"job-dashboard/pkg/payload"
)

// Dashboard ties the filter, the payload builder, the sync loop and the
// mutation dispatcher to one view lifetime.
type Dashboard struct {
	Filter  *FilterState
	Builder *payload.Builder

	syncer     *Syncer
	dispatcher *Dispatcher
}

type Options struct {
	Confirmer Confirmer
	Logger    *slog.Logger
	Syncer    []SyncerOption
}

func New(svc Service, opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	syncOpts := append([]SyncerOption{WithLogger(logger)}, opts.Syncer...)
	s := NewSyncer(svc, syncOpts...)

	return &Dashboard{
		Filter:     NewFilterState(s.Rearm),
		Builder:    payload.NewBuilder(),
		syncer:     s,
		dispatcher: NewDispatcher(svc, s, opts.Confirmer, logger),
	}
}

// Activate starts polling with the current filter.
func (d *Dashboard) Activate() {
	d.syncer.Start(d.Filter.Selection())
}

// Deactivate stops polling; late results are dropped.
func (d *Dashboard) Deactivate() {
	d.syncer.Stop()
}

// SetStatusFilter changes the status filter. A change re-arms polling with an
// immediate fetch while the view is active.
func (d *Dashboard) SetStatusFilter(s job.Status) error {
	_, err := d.Filter.SetStatus(s)
	return err
}

func (d *Dashboard) SetPriorityFilter(p job.Priority) error {
	_, err := d.Filter.SetPriority(p)
	return err
}

func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.syncer.Refresh(ctx)
}

func (d *Dashboard) Snapshot() Snapshot {
	return d.syncer.Snapshot()
}

func (d *Dashboard) Rows() []Row {
	return BuildRows(d.syncer.Snapshot().Jobs)
}

func (d *Dashboard) Syncer() *Syncer {
	return d.syncer
}

// Create submits a job using the dashboard's payload builder.
func (d *Dashboard) Create(ctx context.Context, taskName string, priority job.Priority) (*job.Job, error) {
	return d.dispatcher.Create(ctx, taskName, priority, d.Builder)
}

func (d *Dashboard) Run(ctx context.Context, id string) (*job.Job, error) {
	return d.dispatcher.Run(ctx, id)
}

func (d *Dashboard) Delete(ctx context.Context, id string) (bool, error) {
	return d.dispatcher.Delete(ctx, id)
}

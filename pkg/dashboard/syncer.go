package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"job-dashboard/pkg/job"
	"job-dashboard/pkg/observability"
)

const DefaultPollInterval = 4 * time.Second

// ErrStopped is returned by Refresh once the view has been torn down.
var ErrStopped = errors.New("dashboard view is stopped")

// Snapshot is one server response as last applied to the view.
type Snapshot struct {
	Jobs      []job.Job
	Filter    job.Filter // filter the jobs were fetched with
	FetchedAt time.Time
	// Err is the most recent refresh failure. Jobs still hold the last good list.
	Err error
}

type SyncerOption func(*Syncer)

func WithPollInterval(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRequestTimeout bounds every list request. Zero leaves it to the caller's context.
func WithRequestTimeout(d time.Duration) SyncerOption {
	return func(s *Syncer) { s.timeout = d }
}

func WithLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnUpdate registers a callback run after every applied refresh, on the
// goroutine that performed it. It must not call Start, Rearm or Stop.
func WithOnUpdate(fn func(Snapshot)) SyncerOption {
	return func(s *Syncer) { s.onUpdate = fn }
}

// Syncer replaces the local job list with the service's list, on demand and
// on a fixed interval while the view is active.
type Syncer struct {
	lister   Lister
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	onUpdate func(Snapshot)

	mu        sync.Mutex
	jobs      []job.Job
	filter    job.Filter // next fetch uses this
	shown     job.Filter // jobs were fetched with this
	fetchedAt time.Time
	lastErr   error
	stopped   bool
	epoch     uint64 // bumped by Stop and Rearm; older results are dropped

	armMu  sync.Mutex // serializes Start, Rearm and Stop
	loop   *pollLoop
	timers atomic.Int32
}

type pollLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSyncer(l Lister, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		lister:   l,
		interval: DefaultPollInterval,
		logger:   slog.Default(),
		jobs:     []job.Job{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start activates the view and arms polling with f.
func (s *Syncer) Start(f job.Filter) {
	s.armMu.Lock()
	defer s.armMu.Unlock()

	s.mu.Lock()
	s.stopped = false
	s.filter = f
	s.mu.Unlock()

	s.disarm()
	s.arm(f)
}

// Rearm switches to filter f: the running poll loop is torn down and waited
// for before a new one starts with an immediate fetch. On an inactive view it
// only records f for the next Start or Refresh.
func (s *Syncer) Rearm(f job.Filter) {
	s.armMu.Lock()
	defer s.armMu.Unlock()

	s.mu.Lock()
	s.filter = f
	s.epoch++
	s.mu.Unlock()

	if s.loop == nil {
		return
	}
	s.disarm()
	s.arm(f)
}

// Stop cancels polling. Refreshes still in flight complete but are not applied.
func (s *Syncer) Stop() {
	s.armMu.Lock()
	defer s.armMu.Unlock()

	s.mu.Lock()
	s.stopped = true
	s.epoch++
	s.mu.Unlock()

	s.disarm()
}

// ActiveTimers reports how many poll loops are alive. It is never above one.
func (s *Syncer) ActiveTimers() int {
	return int(s.timers.Load())
}

// Polling reports whether a poll loop is armed.
func (s *Syncer) Polling() bool {
	s.armMu.Lock()
	defer s.armMu.Unlock()
	return s.loop != nil
}

// Refresh fetches the list for the current filter and replaces the local
// copy. A failed fetch keeps the previous list.
func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	f := s.filter
	s.mu.Unlock()
	return s.fetch(ctx, f)
}

func (s *Syncer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Syncer) Jobs() []job.Job {
	return s.Snapshot().Jobs
}

func (s *Syncer) snapshotLocked() Snapshot {
	jobs := make([]job.Job, len(s.jobs))
	copy(jobs, s.jobs)
	return Snapshot{Jobs: jobs, Filter: s.shown, FetchedAt: s.fetchedAt, Err: s.lastErr}
}

// arm requires armMu.
func (s *Syncer) arm(f job.Filter) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &pollLoop{cancel: cancel, done: make(chan struct{})}
	s.loop = l
	s.timers.Add(1)

	go func() {
		defer close(l.done)
		defer s.timers.Add(-1)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Debug("job poll armed", "filter", f.String(), "interval", s.interval)
		_ = s.fetch(ctx, f)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				_ = s.fetch(ctx, f)
			}
		}
	}()
}

// disarm requires armMu.
func (s *Syncer) disarm() {
	if s.loop == nil {
		return
	}
	s.loop.cancel()
	<-s.loop.done
	s.loop = nil
}

func (s *Syncer) fetch(ctx context.Context, f job.Filter) error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	reqCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	jobs, err := s.lister.ListJobs(reqCtx, f)

	s.mu.Lock()
	if s.stopped || s.epoch != epoch || ctx.Err() != nil {
		superseded := !s.stopped && ctx.Err() == nil
		s.mu.Unlock()
		observability.DashboardRefreshes.WithLabelValues("discarded").Inc()
		switch {
		case err != nil:
			return err
		case superseded:
			// the filter changed; the fetch for the new one is applied instead
			return nil
		}
		return ErrStopped
	}
	if err != nil {
		s.lastErr = err
	} else {
		if jobs == nil {
			jobs = []job.Job{}
		}
		s.jobs = jobs
		s.shown = f
		s.fetchedAt = time.Now()
		s.lastErr = nil
	}
	snap := s.snapshotLocked()
	cb := s.onUpdate
	s.mu.Unlock()

	if err != nil {
		observability.DashboardRefreshes.WithLabelValues("error").Inc()
		s.logger.Warn("job list refresh failed, keeping last list", "filter", f.String(), "error", err)
	} else {
		observability.DashboardRefreshes.WithLabelValues("ok").Inc()
		s.logger.Debug("job list refreshed", "filter", f.String(), "count", len(jobs))
	}
	if cb != nil {
		cb(snap)
	}
	return err
}

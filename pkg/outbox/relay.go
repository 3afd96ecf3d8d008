// Package outbox relays run requests recorded in the job_outbox table to the
// broker. A message is deleted only after it was published.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"job-dashboard/pkg/database"
	"job-dashboard/pkg/job"
	"job-dashboard/pkg/observability"
)

// Source is the outbox storage. *database.Client implements it.
type Source interface {
	FetchOutboxMessages(ctx context.Context, limit int) ([]database.OutboxMessage, error)
	GetJob(ctx context.Context, id string) (*job.Job, error)
	DeleteOutboxMessage(ctx context.Context, id string) error
}

// Publisher is the broker side. *mq.Client implements it.
type Publisher interface {
	PublishRun(ctx context.Context, exchange, routingKey string, j *job.Job) error
}

type Relay struct {
	src       Source
	pub       Publisher
	batchSize int
	logger    *slog.Logger
}

func NewRelay(src Source, pub Publisher, batchSize int, logger *slog.Logger) *Relay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{src: src, pub: pub, batchSize: batchSize, logger: logger}
}

// Run processes the outbox every interval until ctx is done.
func (r *Relay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce relays one batch and reports how many messages were published.
// Failed messages stay in the outbox for the next pass.
func (r *Relay) ProcessOnce(ctx context.Context) int {
	messages, err := r.src.FetchOutboxMessages(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch outbox messages", "error", err)
		return 0
	}

	published := 0
	for _, m := range messages {
		j, err := r.src.GetJob(ctx, m.JobID)
		if errors.Is(err, job.ErrNotFound) {
			// deleted between run and relay; nothing left to start
			r.drop(ctx, m, "job deleted before publish")
			continue
		}
		if err != nil {
			observability.OutboxPublished.WithLabelValues("error").Inc()
			r.logger.Error("failed to fetch job for outbox publish", "error", err, "job_id", m.JobID)
			continue
		}

		if err := r.pub.PublishRun(ctx, m.Exchange, m.RoutingKey, j); err != nil {
			observability.OutboxPublished.WithLabelValues("error").Inc()
			r.logger.Error("failed to publish job from outbox", "error", err, "job_id", m.JobID)
			continue
		}

		if err := r.src.DeleteOutboxMessage(ctx, m.ID); err != nil {
			r.logger.Error("failed to delete outbox message after publish", "error", err, "outbox_id", m.ID)
			continue
		}
		observability.OutboxPublished.WithLabelValues("ok").Inc()
		r.logger.Info("published job from outbox", "job_id", m.JobID, "priority", j.Priority)
		published++
	}
	return published
}

func (r *Relay) drop(ctx context.Context, m database.OutboxMessage, reason string) {
	observability.OutboxPublished.WithLabelValues("dropped").Inc()
	if err := r.src.DeleteOutboxMessage(ctx, m.ID); err != nil {
		r.logger.Error("failed to delete outbox message", "error", err, "outbox_id", m.ID)
		return
	}
	r.logger.Warn("dropped outbox message", "reason", reason, "job_id", m.JobID, "outbox_id", m.ID)
}

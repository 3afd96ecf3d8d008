package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-dashboard/pkg/job"
)

// Outbox routing for run requests.
const (
	OutboxExchange   = "jobs.exchange"
	OutboxRoutingKey = "jobs.run"
)

type Config struct {
	URL      string
	MaxConns int32
}

type Client struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, c Config) (*Client, error) {
	// Parse connection string into pgxpool.Config to allow tweaking settings.
	cfg, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	if c.MaxConns > 0 {
		cfg.MaxConns = c.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Client{pool: pool}, nil
}

func (c *Client) Close() {
	c.pool.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// InitSchema creates the necessary tables. Safe to run repeatedly.
func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
    CREATE TABLE IF NOT EXISTS jobs (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        task_name TEXT NOT NULL CHECK (task_name <> ''),
        priority TEXT NOT NULL DEFAULT 'Medium' CHECK (priority IN ('Low', 'Medium', 'High')),
        status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'running', 'completed')),
        payload TEXT NOT NULL DEFAULT '{}',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status);
    CREATE INDEX IF NOT EXISTS idx_jobs_priority ON jobs (priority);

    -- Outbox table for transactional outbox pattern
    CREATE TABLE IF NOT EXISTS job_outbox (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
        exchange TEXT NOT NULL,
        routing_key TEXT NOT NULL,
        payload TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    `
	_, err := c.pool.Exec(ctx, schema)
	return err
}

const jobColumns = `id, task_name, priority, status, payload, created_at, updated_at`

func scanJob(row pgx.Row) (*job.Job, error) {
	j := &job.Job{}
	err := row.Scan(&j.ID, &j.TaskName, &j.Priority, &j.Status, &j.Payload, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// validID keeps malformed ids away from the uuid column; they cannot name a job.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ListJobs returns jobs matching f, newest first.
func (c *Client) ListJobs(ctx context.Context, f job.Filter) ([]job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
              WHERE ($1 = '' OR status = $1) AND ($2 = '' OR priority = $2)
              ORDER BY created_at DESC`
	rows, err := c.pool.Query(ctx, query, string(f.Status), string(f.Priority))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []job.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*job.Job, error) {
	if !validID(jobID) {
		return nil, job.ErrNotFound
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	j, err := scanJob(c.pool.QueryRow(ctx, query, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, job.ErrNotFound
	}
	return j, err
}

func (c *Client) CreateJob(ctx context.Context, req job.CreateRequest) (*job.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	encoded, err := job.EncodePayload(req.Payload)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO jobs (task_name, priority, payload) VALUES ($1, $2, $3) RETURNING ` + jobColumns
	return scanJob(c.pool.QueryRow(ctx, query, req.TaskName, string(req.Priority), encoded))
}

// RunJob atomically moves a pending job to running and queues an outbox
// message for it in the same transaction.
func (c *Client) RunJob(ctx context.Context, jobID string) (*job.Job, error) {
	if !validID(jobID) {
		return nil, job.ErrNotFound
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	claim := `
        UPDATE jobs
        SET status = 'running', updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
        RETURNING ` + jobColumns
	j, err := scanJob(tx.QueryRow(ctx, claim, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, jobID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, job.ErrNotFound
		}
		return nil, job.ErrNotPending
	}
	if err != nil {
		return nil, err
	}

	insertOutbox := `INSERT INTO job_outbox (job_id, exchange, routing_key, payload) VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insertOutbox, j.ID, OutboxExchange, OutboxRoutingKey, j.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	if !validID(jobID) {
		return job.ErrNotFound
	}
	tag, err := c.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrNotFound
	}
	return nil
}

// OutboxMessage represents a row in the job_outbox table.
type OutboxMessage struct {
	ID         string
	JobID      string
	Exchange   string
	RoutingKey string
	Payload    string
	CreatedAt  time.Time
}

// FetchOutboxMessages retrieves up to 'limit' outbox messages ordered by creation time.
func (c *Client) FetchOutboxMessages(ctx context.Context, limit int) ([]OutboxMessage, error) {
	query := `SELECT id, job_id, exchange, routing_key, payload, created_at FROM job_outbox ORDER BY created_at LIMIT $1`
	rows, err := c.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []OutboxMessage{}
	for rows.Next() {
		var m OutboxMessage
		if err := rows.Scan(&m.ID, &m.JobID, &m.Exchange, &m.RoutingKey, &m.Payload, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteOutboxMessage removes an outbox message after successful publish.
func (c *Client) DeleteOutboxMessage(ctx context.Context, id string) error {
	_, err := c.pool.Exec(ctx, `DELETE FROM job_outbox WHERE id = $1`, id)
	return err
}

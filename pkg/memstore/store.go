// Package memstore is an in-memory job store for running the API without Postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"job-dashboard/pkg/job"
)

type entry struct {
	job job.Job
	seq uint64
}

type Store struct {
	mu   sync.RWMutex
	jobs map[string]*entry
	seq  uint64
	now  func() time.Time
}

func New() *Store {
	return &Store{
		jobs: make(map[string]*entry),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// ListJobs returns matching jobs, newest first.
func (s *Store) ListJobs(_ context.Context, f job.Filter) ([]job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		if f.Matches(e.job) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	out := make([]job.Job, len(matched))
	for i, e := range matched {
		out[i] = e.job
	}
	return out, nil
}

func (s *Store) GetJob(_ context.Context, id string) (*job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.jobs[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	j := e.job
	return &j, nil
}

func (s *Store) CreateJob(_ context.Context, req job.CreateRequest) (*job.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	encoded, err := job.EncodePayload(req.Payload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	j := job.Job{
		ID:        uuid.NewString(),
		TaskName:  req.TaskName,
		Priority:  req.Priority,
		Status:    job.StatusPending,
		Payload:   encoded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Put(j)
	return &j, nil
}

// RunJob moves a pending job to running.
func (s *Store) RunJob(_ context.Context, id string) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	if e.job.Status != job.StatusPending {
		return nil, job.ErrNotPending
	}
	e.job.Status = job.StatusRunning
	e.job.UpdatedAt = s.now()
	j := e.job
	return &j, nil
}

func (s *Store) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return job.ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// Put inserts or replaces j as-is. Replacing keeps the original list position.
func (s *Store) Put(j job.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.jobs[j.ID]; ok {
		e.job = j
		return
	}
	s.seq++
	s.jobs[j.ID] = &entry{job: j, seq: s.seq}
}

package dashboard

import (
	"context"
	"fmt"
	"sync"

	"job-dashboard/pkg/job"
)

// fakeService records every call in order.
type fakeService struct {
	mu        sync.Mutex
	jobs      []job.Job
	listErr   error
	createErr error
	runErr    error
	deleteErr error

	// when set, ListJobs signals entered and waits for release
	entered chan struct{}
	release chan struct{}

	filters []job.Filter
	created []job.CreateRequest
	events  []string
}

func (f *fakeService) ListJobs(ctx context.Context, filter job.Filter) ([]job.Job, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.events = append(f.events, "list")
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []job.Job{}
	for _, j := range f.jobs {
		if filter.Matches(j) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeService) CreateJob(_ context.Context, req job.CreateRequest) (*job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "create")
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	j := job.Job{ID: fmt.Sprintf("job-%d", len(f.jobs)+1), TaskName: req.TaskName, Priority: req.Priority, Status: job.StatusPending}
	f.jobs = append(f.jobs, j)
	return &j, nil
}

func (f *fakeService) RunJob(_ context.Context, id string) (*job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "run:"+id)
	if f.runErr != nil {
		return nil, f.runErr
	}
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			f.jobs[i].Status = job.StatusRunning
			j := f.jobs[i]
			return &j, nil
		}
	}
	return nil, job.ErrNotFound
}

func (f *fakeService) DeleteJob(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "delete:"+id)
	return f.deleteErr
}

func (f *fakeService) setJobs(jobs ...job.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = jobs
}

func (f *fakeService) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeService) listCalls() []job.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]job.Filter, len(f.filters))
	copy(out, f.filters)
	return out
}

func (f *fakeService) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-dashboard/internal/server"
	"job-dashboard/pkg/job"
	"job-dashboard/pkg/memstore"
)

func startAPI(t *testing.T) (*memstore.Store, string) {
	t.Helper()
	store := memstore.New()
	srv, err := server.New(store, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return store, ts.URL
}

func execute(ctx context.Context, t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func run(t *testing.T, apiURL string, args ...string) (string, error) {
	t.Helper()
	return execute(context.Background(), t, "", append([]string{"--api-url", apiURL}, args...)...)
}

func listJSON(t *testing.T, apiURL string, args ...string) []job.Job {
	t.Helper()
	out, err := run(t, apiURL, append([]string{"list", "--json"}, args...)...)
	require.NoError(t, err)
	var jobs []job.Job
	require.NoError(t, json.Unmarshal([]byte(out), &jobs))
	return jobs
}

func TestListEmpty(t *testing.T) {
	_, url := startAPI(t)

	out, err := run(t, url, "list")
	require.NoError(t, err)
	assert.Equal(t, "No jobs found\n", out)
}

func TestCreateAndList(t *testing.T) {
	_, url := startAPI(t)

	out, err := run(t, url, "create", "--task", "Generate Invoice", "--priority", "High",
		"--pair", "region=us", "--pair", "region=eu")
	require.NoError(t, err)
	assert.Contains(t, out, "Created job")
	assert.Contains(t, out, "High, pending")

	jobs := listJSON(t, url)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Generate Invoice", jobs[0].TaskName)
	assert.Equal(t, job.PriorityHigh, jobs[0].Priority)
	assert.JSONEq(t, `{"region":"eu"}`, jobs[0].Payload)

	out, err = run(t, url, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TASK")
	assert.Contains(t, out, "Generate Invoice")
	assert.Contains(t, out, "region: eu")
	assert.Contains(t, out, "run,delete")
}

func TestCreateFromFile(t *testing.T) {
	_, url := startAPI(t)
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
taskName: Nightly Export
priority: Low
payload:
  - key: format
    value: csv
  - key: region
    value: us
`), 0o600))

	_, err := run(t, url, "create", "-f", path, "--pair", "region=eu")
	require.NoError(t, err)

	jobs := listJSON(t, url)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Nightly Export", jobs[0].TaskName)
	assert.Equal(t, job.PriorityLow, jobs[0].Priority)
	assert.JSONEq(t, `{"format":"csv","region":"eu"}`, jobs[0].Payload)
}

func TestCreateRejectsBadInput(t *testing.T) {
	_, url := startAPI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"blank task", []string{"create", "--task", "  "}},
		{"bad priority", []string{"create", "--task", "x", "--priority", "Urgent"}},
		{"pair without equals", []string{"create", "--task", "x", "--pair", "region"}},
		{"empty pair value", []string{"create", "--task", "x", "--pair", "region="}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, url, tt.args...)
			require.Error(t, err)
		})
	}
	assert.Empty(t, listJSON(t, url))
}

func TestListFilters(t *testing.T) {
	store, url := startAPI(t)
	store.Put(job.Job{ID: "p", TaskName: "pending job", Status: job.StatusPending, Priority: job.PriorityHigh})
	store.Put(job.Job{ID: "c", TaskName: "completed job", Status: job.StatusCompleted, Priority: job.PriorityLow})

	jobs := listJSON(t, url, "--status", "completed")
	require.Len(t, jobs, 1)
	assert.Equal(t, "c", jobs[0].ID)

	jobs = listJSON(t, url, "--priority", "high")
	require.Len(t, jobs, 1)
	assert.Equal(t, "p", jobs[0].ID)

	_, err := run(t, url, "list", "--status", "failed")
	require.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	store, url := startAPI(t)
	store.Put(job.Job{ID: "p", TaskName: "pending job", Status: job.StatusPending})

	out, err := run(t, url, "run", "p")
	require.NoError(t, err)
	assert.Equal(t, "Job p is now running\n", out)

	_, err = run(t, url, "run", "p")
	require.ErrorContains(t, err, "not pending")

	_, err = run(t, url, "run", "missing")
	require.ErrorContains(t, err, "not found")
}

func TestDeleteCommand(t *testing.T) {
	store, url := startAPI(t)
	store.Put(job.Job{ID: "a", TaskName: "a", Status: job.StatusPending})
	store.Put(job.Job{ID: "b", TaskName: "b", Status: job.StatusPending})
	ctx := context.Background()

	out, err := execute(ctx, t, "n\n", "--api-url", url, "delete", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Delete this job? [y/N]: ")
	assert.Contains(t, out, "Aborted")
	assert.Len(t, listJSON(t, url), 2)

	out, err = execute(ctx, t, "", "--api-url", url, "delete", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")

	out, err = execute(ctx, t, "yes\n", "--api-url", url, "delete", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted job a")

	out, err = run(t, url, "delete", "--yes", "b")
	require.NoError(t, err)
	assert.Equal(t, "Deleted job b\n", out)
	assert.Empty(t, listJSON(t, url))

	_, err = run(t, url, "delete", "-y", "b")
	require.ErrorContains(t, err, "not found")
}

func TestShowCommand(t *testing.T) {
	store, url := startAPI(t)
	store.Put(job.Job{ID: "a", TaskName: "Generate Invoice", Status: job.StatusCompleted,
		Priority: job.PriorityHigh, Payload: `{"region":"eu"}`})
	store.Put(job.Job{ID: "bad", TaskName: "broken", Status: job.StatusPending, Payload: `{nope`})

	out, err := run(t, url, "show", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Generate Invoice")
	assert.Contains(t, out, "region: eu")
	assert.Contains(t, out, "Actions:")
	assert.NotContains(t, out, "run,")

	out, err = run(t, url, "show", "bad")
	require.NoError(t, err)
	assert.Contains(t, out, "malformed payload")

	out, err = run(t, url, "show", "a", "--json")
	require.NoError(t, err)
	var j job.Job
	require.NoError(t, json.Unmarshal([]byte(out), &j))
	assert.Equal(t, "a", j.ID)

	_, err = run(t, url, "show", "missing")
	require.ErrorContains(t, err, "not found")
}

func TestWatchPrintsRefreshes(t *testing.T) {
	store, url := startAPI(t)
	store.Put(job.Job{ID: "c", TaskName: "completed job", Status: job.StatusCompleted})
	store.Put(job.Job{ID: "p", TaskName: "pending job", Status: job.StatusPending})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := execute(ctx, t, "", "--api-url", url, "--interval", "50ms", "watch", "--status", "completed")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, strings.Count(out, "== jobs (status=completed priority=all)"), 2)
	assert.Contains(t, out, "completed job")
	assert.NotContains(t, out, "pending job")
}

func TestBadAPIURL(t *testing.T) {
	_, err := run(t, "not a url", "list")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(context.Background(), t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "jobdash dev\n", out)
}

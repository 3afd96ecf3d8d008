package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-dashboard/pkg/job"
	"job-dashboard/pkg/memstore"
)

func newTestServer(t *testing.T, store Store) *Server {
	t.Helper()
	srv, err := New(store, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) HTTPError {
	t.Helper()
	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestCreateAndListJobs(t *testing.T) {
	srv := newTestServer(t, memstore.New())

	rec := do(t, srv, http.MethodPost, "/jobs", `{"taskName":"Generate Invoice","priority":"High","payload":{"region":"eu"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created job.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "Generate Invoice", created.TaskName)
	assert.Equal(t, job.PriorityHigh, created.Priority)
	assert.Equal(t, job.StatusPending, created.Status)
	assert.JSONEq(t, `{"region":"eu"}`, created.Payload)

	rec = do(t, srv, http.MethodGet, "/jobs?status=pending&priority=High", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []job.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, created.ID, jobs[0].ID)

	rec = do(t, srv, http.MethodGet, "/jobs?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateJobValidation(t *testing.T) {
	srv := newTestServer(t, memstore.New())

	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{`, "BAD_REQUEST"},
		{"missing task", `{"priority":"High"}`, "VALIDATION_ERROR"},
		{"empty task", `{"taskName":""}`, "VALIDATION_ERROR"},
		{"blank task", `{"taskName":"   "}`, "VALIDATION_ERROR"},
		{"bad priority", `{"taskName":"x","priority":"Urgent"}`, "VALIDATION_ERROR"},
		{"non-string payload value", `{"taskName":"x","payload":{"n":1}}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/jobs", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestCreateJobDefaultsPriority(t *testing.T) {
	srv := newTestServer(t, memstore.New())

	rec := do(t, srv, http.MethodPost, "/jobs", `{"taskName":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created job.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, job.PriorityMedium, created.Priority)
	assert.Equal(t, "{}", created.Payload)
}

func TestListJobsRejectsUnknownFilter(t *testing.T) {
	srv := newTestServer(t, memstore.New())

	rec := do(t, srv, http.MethodGet, "/jobs?status=failed", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
}

func TestRunJob(t *testing.T) {
	store := memstore.New()
	store.Put(job.Job{ID: "p", TaskName: "pending", Status: job.StatusPending, Priority: job.PriorityLow})
	store.Put(job.Job{ID: "c", TaskName: "done", Status: job.StatusCompleted, Priority: job.PriorityLow})
	srv := newTestServer(t, store)

	rec := do(t, srv, http.MethodPost, "/jobs/p/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ran job.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ran))
	assert.Equal(t, job.StatusRunning, ran.Status)

	rec = do(t, srv, http.MethodPost, "/jobs/c/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, rec).Code)

	rec = do(t, srv, http.MethodPost, "/jobs/missing/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAndDeleteJob(t *testing.T) {
	store := memstore.New()
	store.Put(job.Job{ID: "a", TaskName: "a", Status: job.StatusPending})
	srv := newTestServer(t, store)

	rec := do(t, srv, http.MethodGet, "/jobs/a", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/jobs/a", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/jobs/a", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)

	rec = do(t, srv, http.MethodGet, "/jobs/a", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, memstore.New())

	rec := do(t, srv, http.MethodGet, "/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)

	rec = do(t, srv, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Code)
}

type failingStore struct {
	*memstore.Store
	err error
}

func (f failingStore) Ping(context.Context) error { return f.err }

func (f failingStore) ListJobs(context.Context, job.Filter) ([]job.Job, error) {
	return nil, f.err
}

func TestStoreFailures(t *testing.T) {
	srv := newTestServer(t, failingStore{Store: memstore.New(), err: errors.New("connection refused")})

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, srv, http.MethodGet, "/jobs", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", e.Code)
	assert.NotContains(t, e.Message, "connection refused")
}

func TestHealthy(t *testing.T) {
	srv := newTestServer(t, memstore.New())

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

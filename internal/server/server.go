// Package server exposes the job scheduler HTTP API consumed by the dashboard.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"job-dashboard/pkg/job"
	"job-dashboard/pkg/observability"
)

const maxBodyBytes = 1 << 20

//go:embed schemas/create_job.json
var createJobSchema []byte

// Store is the persistence behind the API. *database.Client and
// *memstore.Store implement it.
type Store interface {
	ListJobs(ctx context.Context, f job.Filter) ([]job.Job, error)
	GetJob(ctx context.Context, id string) (*job.Job, error)
	CreateJob(ctx context.Context, req job.CreateRequest) (*job.Job, error)
	RunJob(ctx context.Context, id string) (*job.Job, error)
	DeleteJob(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type Server struct {
	store  Store
	logger *slog.Logger
	schema *jsonschema.Schema
	router chi.Router
}

func New(store Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("create_job.json", bytes.NewReader(createJobSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("create_job.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	s := &Server{store: store, logger: logger, schema: schema}
	s.router = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.handleListJobs)
		r.Post("/", s.handleCreateJob)
		r.Get("/{id}", s.handleGetJob)
		r.Delete("/{id}", s.handleDeleteJob)
		r.Post("/{id}/run", s.handleRunJob)
	})
	return r
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		observability.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status, err := job.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	priority, err := job.ParsePriority(r.URL.Query().Get("priority"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	jobs, err := s.store.ListJobs(r.Context(), job.Filter{Status: status, Priority: priority})
	if err != nil {
		s.fail(w, err, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []job.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "failed to get job")
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "cannot read body")
		return
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := s.schema.Validate(doc); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	var req job.CreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	created, err := s.store.CreateJob(r.Context(), req)
	if err != nil {
		s.fail(w, err, "failed to create job")
		return
	}

	observability.JobsSubmitted.WithLabelValues(string(created.Priority)).Inc()
	s.logger.Info("job created", "job_id", created.ID, "task_name", created.TaskName, "priority", created.Priority)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, err := s.store.RunJob(r.Context(), id)
	if err != nil {
		s.fail(w, err, "failed to run job")
		return
	}

	observability.JobsRunRequested.WithLabelValues(string(j.Priority)).Inc()
	s.logger.Info("job run requested", "job_id", j.ID)
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteJob(r.Context(), id); err != nil {
		s.fail(w, err, "failed to delete job")
		return
	}

	observability.JobsDeleted.Inc()
	s.logger.Info("job deleted", "job_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, err error, msg string) {
	if writeStoreError(w, err) {
		s.logger.Error(msg, "error", err)
	}
}

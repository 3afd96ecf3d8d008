package observability

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_submitted_total",
		Help: "The total number of created jobs",
	}, []string{"priority"})

	JobsRunRequested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_run_requested_total",
		Help: "The total number of accepted run requests",
	}, []string{"priority"})

	JobsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobs_deleted_total",
		Help: "The total number of deleted jobs",
	})

	DashboardRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_refreshes_total",
		Help: "Job list refreshes issued by the dashboard",
	}, []string{"result"}) // result: ok, error, discarded

	DashboardMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_mutations_total",
		Help: "Mutations dispatched by the dashboard",
	}, []string{"op", "result"})

	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox messages relayed to the broker",
	}, []string{"result"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "Duration of job API requests.",
		Buckets: prometheus.LinearBuckets(0.005, 0.025, 10),
	}, []string{"route", "method"})
)

// NewLogger creates a new structured logger writing JSON to w (stdout when nil).
func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps a config level name onto slog; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StartMetricsServer runs an HTTP server to expose Prometheus metrics.
func StartMetricsServer(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server failed", "error", err)
		}
	}()
}

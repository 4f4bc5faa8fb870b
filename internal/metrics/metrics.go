package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flockwatch_command_runs_total",
		Help: "Total runs per subcommand",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flockwatch_command_errors_total",
		Help: "Total failed runs per subcommand",
	}, []string{"command"})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flockwatch_run_duration_seconds",
		Help:    "Run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	UnfollowsDetected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flockwatch_unfollows_detected_total",
		Help: "Followers newly marked gone by sweeps",
	})
	UpsertFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flockwatch_upsert_failures_total",
		Help: "Per-record upsert failures during reconciliation",
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flockwatch_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
)

func init() {
	prometheus.MustRegister(CommandRuns, CommandErrors, RunDuration, UnfollowsDetected, UpsertFailures, APIRetries)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveRunDuration records a run duration
func ObserveRunDuration(start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
}

// IncCommandRun increments the run counter for a subcommand.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError increments the error counter for a subcommand.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

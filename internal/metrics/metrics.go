package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/agent-dashboard/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Agent pipeline

	AgentInvocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "agent_invocations_total",
		Help:      "Agent invocations, by agent kind and outcome.",
	}, []string{"agent", "outcome"})

	AgentInvocationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Name:      "agent_invocation_duration_seconds",
		Help:      "Wall time of one agent call.",
		Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"agent"})

	// AgentsInFlight is the active-agent indicator: 1 while an agent of
	// that kind is being invoked.
	AgentsInFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Name:      "agents_in_flight",
		Help:      "Agent calls currently waiting for a reply.",
	}, []string{"agent"})

	NormalizationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "normalizations_total",
		Help:      "Normalized agent replies, by channel (trusted, raw, none) and outcome.",
	}, []string{"channel", "outcome"})

	// Schedule

	ScheduleOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "schedule_operations_total",
		Help:      "Schedule controller operations, by operation and outcome.",
	}, []string{"op", "outcome"})

	LocalRunAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "local_run_attempts_total",
		Help:      "Attempts executed by the in-process scheduler, by outcome.",
	}, []string{"outcome"})

	// HTTP

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		AgentInvocationsTotal,
		AgentInvocationDuration,
		AgentsInFlight,
		NormalizationsTotal,
		ScheduleOperationsTotal,
		LocalRunAttemptsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// Outcome labels an error as "success" or "failure".
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// NewServer serves /metrics, /healthz and /readyz on addr.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}

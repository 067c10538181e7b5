package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OptimizationRuns counts strategy invocations by outcome (routed/empty)
	OptimizationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimization_runs_total", Help: "Optimization runs by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	// OptimizationDuration tracks per-day search latency in seconds
	OptimizationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "optimization_duration_seconds", Help: "Optimization duration in seconds.", Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5}},
		[]string{"strategy"},
	)
	// CompetitionDaysSimulated counts simulated agent-days
	CompetitionDaysSimulated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "competition_days_simulated_total", Help: "Total simulated agent-days."},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OptimizationRuns)
		Registry.MustRegister(OptimizationDuration)
		Registry.MustRegister(CompetitionDaysSimulated)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

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

	// SolveDuration tracks wall-clock solve time per outcome
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}},
		[]string{"outcome"},
	)
	// SolveIterations tracks search iterations per run
	SolveIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_iterations", Help: "Search iterations per solve.", Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000}},
	)
	// DroppedItems counts items left unrouted under the penalty relaxation
	DroppedItems = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dropped_items_total", Help: "Items dropped across all solves."},
	)
	// LastObjective holds the objective of the most recent successful solve
	LastObjective = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "solve_last_objective", Help: "Objective of the latest solved plan."},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SolveIterations)
		Registry.MustRegister(DroppedItems)
		Registry.MustRegister(LastObjective)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

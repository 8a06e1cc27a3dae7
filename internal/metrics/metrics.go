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

	// Missions counts mission runs by terminal outcome (planned, infeasible, error)
	Missions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "missions_total", Help: "Mission runs by outcome."},
		[]string{"outcome"},
	)
	// MissionDuration tracks end-to-end mission planning time in seconds
	MissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "mission_duration_seconds", Help: "Mission planning duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}},
	)
	// Routes counts optimized routes by strategy and terminal status
	Routes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "routes_total", Help: "Optimized routes by strategy and status."},
		[]string{"strategy", "status"},
	)
	// RouteCost records the weighted objective value of finished routes
	RouteCost = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "route_search_cost", Help: "Weighted cost of finished routes.", Buckets: prometheus.ExponentialBuckets(10, 4, 8)},
		[]string{"strategy"},
	)
	// OracleCalls counts distance oracle queries by provider and cache outcome
	OracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "oracle_calls_total", Help: "Distance oracle queries by provider and cache outcome."},
		[]string{"provider", "cache"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Missions)
		Registry.MustRegister(MissionDuration)
		Registry.MustRegister(Routes)
		Registry.MustRegister(RouteCost)
		Registry.MustRegister(OracleCalls)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Convergence metrics
	ConvergenceCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_convergence_cycles_total",
			Help: "Total number of convergence cycles by result",
		},
		[]string{"result"},
	)

	ConvergenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_convergence_duration_seconds",
			Help:    "Time to complete one convergence cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StepsPlannedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_steps_planned_total",
			Help: "Total number of steps planned by step kind",
		},
		[]string{"kind"},
	)

	StepsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_steps_executed_total",
			Help: "Total number of steps executed by step kind and result",
		},
		[]string{"kind", "result"},
	)

	// Observed-state metrics
	GroupsConfigured = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_groups_configured",
			Help: "Number of scaling groups under management",
		},
	)

	ServersObserved = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "burrow_servers_observed",
			Help: "Servers observed in the last cycle by group and state",
		},
		[]string{"group", "state"},
	)

	// Cloud API metrics
	CloudAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_cloud_api_requests_total",
			Help: "Total number of cloud API requests by service, method and status",
		},
		[]string{"service", "method", "status"},
	)

	// Admin API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_api_requests_total",
			Help: "Total number of admin API requests by path and status",
		},
		[]string{"path", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "burrow_api_request_duration_seconds",
			Help:    "Admin API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ConvergenceCyclesTotal)
	prometheus.MustRegister(ConvergenceDuration)
	prometheus.MustRegister(StepsPlannedTotal)
	prometheus.MustRegister(StepsExecutedTotal)
	prometheus.MustRegister(GroupsConfigured)
	prometheus.MustRegister(ServersObserved)
	prometheus.MustRegister(CloudAPIRequestsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics provides Prometheus metrics collection for the clinical API.
// It exports HTTP server metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// plus decision-pipeline and catalog metrics:
//   - clinical_decisions_total: Counter with final verdict status label
//   - clinical_decision_duration_seconds: Histogram of end-to-end pipeline latency
//   - pubmed_query_variants_tried: Histogram of ladder depth per retrieval
//   - catalog_matches_total: Counter with substitute-lookup outcome label
//   - catalog_entries / catalog_potential_savings_rupees: audit gauges
//   - auth_active_sessions: live bearer session gauge
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinical_decisions_total",
			Help: "Safety verdicts issued, by final status",
		},
		[]string{"status"},
	)

	DecisionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clinical_decision_duration_seconds",
			Help:    "End-to-end decision pipeline latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	PubmedVariantsTried = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pubmed_query_variants_tried",
			Help:    "Query variants attempted per literature retrieval (4 = ladder exhausted)",
			Buckets: []float64{1, 2, 3, 4},
		},
	)

	CatalogMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_matches_total",
			Help: "Generic-substitute lookups, by outcome",
		},
		[]string{"outcome"},
	)

	CatalogEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Entries in the Jan Aushadhi catalog at the last audit",
		},
	)

	CatalogPotentialSavings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_potential_savings_rupees",
			Help: "Summed market-minus-catalog margin at the last audit",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_active_sessions",
			Help: "Live bearer sessions after the last sweep",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DecisionsTotal)
	prometheus.MustRegister(DecisionDuration)
	prometheus.MustRegister(PubmedVariantsTried)
	prometheus.MustRegister(CatalogMatchesTotal)
	prometheus.MustRegister(CatalogEntries)
	prometheus.MustRegister(CatalogPotentialSavings)
	prometheus.MustRegister(ActiveSessions)
}

package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UpstreamRequests counts requests issued against the vulnerability feed
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vulnscan",
			Name:      "upstream_requests_total",
			Help:      "Total number of requests sent to the upstream vulnerability feed",
		},
		[]string{"query", "status"},
	)

	// UpstreamRetries counts retried requests after a rate-limit response
	UpstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vulnscan",
			Name:      "upstream_retries_total",
			Help:      "Total number of retries after upstream rate limiting",
		},
		[]string{"query"},
	)

	// FindingsProcessed counts findings handled by enrichment runs
	FindingsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vulnscan",
			Name:      "findings_processed_total",
			Help:      "Total number of findings processed by enrichment, by outcome",
		},
		[]string{"result"},
	)

	// MatchesByConfidence counts accepted vulnerability matches per tier
	MatchesByConfidence = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vulnscan",
			Name:      "matches_total",
			Help:      "Total number of vulnerability matches linked to findings, by confidence tier",
		},
		[]string{"confidence"},
	)

	// CacheLookups counts local vulnerability cache hits and misses
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vulnscan",
			Name:      "cache_lookups_total",
			Help:      "Total number of local vulnerability cache lookups",
		},
		[]string{"result"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		// This prevents panics when metrics are already in the registry
		prometheus.DefaultRegisterer.Register(UpstreamRequests)
		prometheus.DefaultRegisterer.Register(UpstreamRetries)
		prometheus.DefaultRegisterer.Register(FindingsProcessed)
		prometheus.DefaultRegisterer.Register(MatchesByConfidence)
		prometheus.DefaultRegisterer.Register(CacheLookups)
	})
}

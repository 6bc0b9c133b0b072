// Package observability provides Prometheus metrics for the application core.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EngagementToggles counts ledger toggles by kind and outcome (created/removed/conflict).
	EngagementToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waypost_engagement_toggles_total",
		Help: "Total number of engagement toggles by kind and outcome",
	}, []string{"kind", "outcome"})

	// ViewsRecorded counts recorded views by dedup outcome (unique/repeat).
	ViewsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waypost_views_recorded_total",
		Help: "Total number of recorded entry views by dedup outcome",
	}, []string{"outcome"})

	// ViewFailures counts view-tracking failures that were swallowed.
	ViewFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waypost_view_failures_total",
		Help: "Total number of swallowed view-tracking failures",
	})

	// SponsorshipChecks counts sponsorship gate decisions.
	SponsorshipChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waypost_sponsorship_checks_total",
		Help: "Total number of sponsorship gate decisions",
	}, []string{"decision"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "waypost_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Package metrics provides Prometheus metrics for the syndication pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal counts reconciler runs by outcome.
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syndicator",
			Name:      "sync_runs_total",
			Help:      "Total number of portal sync runs",
		},
		[]string{"status"},
	)

	// SyncDuration measures reconciler run duration.
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "syndicator",
			Name:      "sync_duration_seconds",
			Help:      "Duration of portal sync runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// PublicationsTotal counts ledger upserts by result.
	PublicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syndicator",
			Name:      "publications_total",
			Help:      "Total number of publication ledger upserts",
		},
		[]string{"result"},
	)

	// RejectionsTotal counts filter engine rejections by reason.
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syndicator",
			Name:      "rejections_total",
			Help:      "Total number of properties rejected by portal filters",
		},
		[]string{"reason"},
	)

	// FeedRendersTotal counts feed renders by outcome.
	FeedRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syndicator",
			Name:      "feed_renders_total",
			Help:      "Total number of feed renders",
		},
		[]string{"status"},
	)

	// FeedItems observes listing counts per rendered feed.
	FeedItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "syndicator",
			Name:      "feed_items",
			Help:      "Distribution of listings per rendered feed",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	// FeedSkippedTotal counts listings left out of feeds because they could
	// not be serialized.
	FeedSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "syndicator",
			Name:      "feed_skipped_items_total",
			Help:      "Total number of listings skipped while rendering feeds",
		},
	)
)

// RecordSync records a finished reconciler run.
func RecordSync(status string, duration float64, published, failed int) {
	SyncRunsTotal.WithLabelValues(status).Inc()
	SyncDuration.Observe(duration)
	PublicationsTotal.WithLabelValues("published").Add(float64(published))
	PublicationsTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordRejections records filter rejections by reason.
func RecordRejections(counts map[string]int) {
	for reason, n := range counts {
		RejectionsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordFeedRender records a feed render.
func RecordFeedRender(status string, items, skipped int) {
	FeedRendersTotal.WithLabelValues(status).Inc()
	if status == "success" {
		FeedItems.Observe(float64(items))
		FeedSkippedTotal.Add(float64(skipped))
	}
}

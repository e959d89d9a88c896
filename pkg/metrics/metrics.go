// Package metrics provides Prometheus metrics for the thistle service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "thistle"

var (
	// UpstreamRequestsTotal tracks calls to the review feed
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream review feed requests",
		},
		[]string{"method", "status_code"},
	)

	// UpstreamRequestDuration tracks upstream request latency
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of upstream review feed requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// IngestionsTotal tracks ingestion runs by source
	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "runs_total",
			Help:      "Total number of ingestion runs by source",
		},
		[]string{"source"},
	)

	// IngestedReviewsTotal tracks reviews stored by ingestion
	IngestedReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "reviews_total",
			Help:      "Total number of reviews ingested by outcome",
		},
		[]string{"source", "outcome"},
	)

	// ModerationTransitionsTotal tracks approve and reject calls
	ModerationTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "transitions_total",
			Help:      "Total number of moderation transitions by action",
		},
		[]string{"action"},
	)

	// ReviewQueriesTotal tracks filtered review queries
	ReviewQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "queries_total",
			Help:      "Total number of review queries by result",
		},
		[]string{"result"},
	)

	// DashboardCacheTotal tracks dashboard cache lookups
	DashboardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "cache_lookups_total",
			Help:      "Total number of dashboard cache lookups by result",
		},
		[]string{"result"},
	)

	// KafkaPublishTotal tracks review events published
	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "publish_total",
			Help:      "Total number of Kafka publish operations",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish latency
	KafkaPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"topic"},
	)
)

// RecordUpstreamRequest records an upstream request. A zero status means
// the request never got a response.
func RecordUpstreamRequest(method string, statusCode int, durationSeconds float64) {
	UpstreamRequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	UpstreamRequestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordIngestion records one ingestion run and its per review outcomes
func RecordIngestion(source string, stored, skipped, defaulted int) {
	IngestionsTotal.WithLabelValues(source).Inc()
	IngestedReviewsTotal.WithLabelValues(source, "stored").Add(float64(stored))
	IngestedReviewsTotal.WithLabelValues(source, "skipped").Add(float64(skipped))
	IngestedReviewsTotal.WithLabelValues(source, "defaulted_submitted_at").Add(float64(defaulted))
}

// RecordModeration records a moderation transition
func RecordModeration(action string) {
	ModerationTransitionsTotal.WithLabelValues(action).Inc()
}

// RecordReviewQuery records a review query as ok or invalid
func RecordReviewQuery(result string) {
	ReviewQueriesTotal.WithLabelValues(result).Inc()
}

// RecordDashboardCache records a cache hit or miss
func RecordDashboardCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DashboardCacheTotal.WithLabelValues(result).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaPublishTotal.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.WithLabelValues(topic).Observe(durationSeconds)
}

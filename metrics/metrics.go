// Package metrics provides Prometheus metrics for video-indexer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesConsumed counts consumed sync messages by outcome
	// (ack, discard, requeue).
	MessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "video_indexer",
			Name:      "messages_consumed_total",
			Help:      "Total number of consumed sync messages by outcome",
		},
		[]string{"result"},
	)

	// PublishTotal counts sync message publish attempts by status.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "video_indexer",
			Name:      "publish_total",
			Help:      "Total number of sync message publish attempts",
		},
		[]string{"status"},
	)

	// PublishDropped counts submissions dropped because the producer
	// buffer was full.
	PublishDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "video_indexer",
			Name:      "publish_dropped_total",
			Help:      "Total number of publish submissions dropped on a full buffer",
		},
	)

	// DocumentsIndexed counts successful single-document upserts.
	DocumentsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "video_indexer",
			Name:      "documents_indexed_total",
			Help:      "Total number of documents upserted into the index",
		},
	)

	// DocumentsDeleted counts successful index deletes.
	DocumentsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "video_indexer",
			Name:      "documents_deleted_total",
			Help:      "Total number of documents deleted from the index",
		},
	)

	// BulkItemFailures counts per-item failures during bulk indexing.
	BulkItemFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "video_indexer",
			Name:      "bulk_item_failures_total",
			Help:      "Total number of documents rejected during bulk indexing",
		},
	)

	// SearchTotal counts search queries.
	SearchTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "video_indexer",
			Name:      "search_total",
			Help:      "Total number of search queries",
		},
	)

	// SearchDuration measures search query duration.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "video_indexer",
			Name:      "search_duration_seconds",
			Help:      "Duration of search queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// RecordConsumed records a consumed message outcome.
func RecordConsumed(result string) {
	MessagesConsumed.WithLabelValues(result).Inc()
}

// RecordPublish records a publish attempt.
func RecordPublish(status string) {
	PublishTotal.WithLabelValues(status).Inc()
}

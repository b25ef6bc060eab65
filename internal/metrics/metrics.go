package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "church_messaging"

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Scheduled messages processed, by outcome.",
		},
		[]string{"outcome"},
	)

	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Per-member delivery attempts, by status.",
		},
		[]string{"status"},
	)

	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_pass_duration_seconds",
			Help:      "Duration of a full dispatch pass.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of requests to SMS providers.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name", "result"},
	)
)

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrorsTotal counts tracked errors by category and severity
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_errors_total",
			Help: "Total number of classified errors tracked",
		},
		[]string{"category", "severity"},
	)

	// HealthScore exposes the current 0-100 health score
	HealthScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_health_score",
			Help: "Current health score derived from the error window",
		},
	)

	// AlertsDispatched counts alert channel dispatch attempts
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_dispatched_total",
			Help: "Total number of alert dispatch attempts per channel",
		},
		[]string{"channel", "status"},
	)

	// RetryQueueDepth exposes the current webhook retry queue size
	RetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_retry_queue_depth",
			Help: "Number of entries waiting in the webhook retry queue",
		},
	)
)

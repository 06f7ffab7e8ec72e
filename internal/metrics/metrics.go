package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	TaskMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_mutation_count",
			Help: "Total number of task mutations",
		},
		[]string{"operation"}, // create, update, reorder, archive, restore, delete
	)

	RolledOverCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "task_rollover_moved_total",
			Help: "Total number of tasks moved by the daily rollover",
		},
	)

	RealtimeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_sessions",
			Help: "Currently connected websocket sessions",
		},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func CountTaskMutation(operation string) {
	TaskMutationCount.WithLabelValues(operation).Inc()
}

func CountRolledOver(n int64) {
	RolledOverCount.Add(float64(n))
}

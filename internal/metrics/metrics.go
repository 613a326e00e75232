package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ProcessedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_processed_total", Help: "Total processed outbox events"},
	)
	FailedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_failed_total", Help: "Total failed outbox events"},
	)
	DLQEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_dlq_total", Help: "Total events inserted into DLQ"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests by route and status code"},
		[]string{"method", "route", "code"},
	)
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_attempts_total", Help: "Identity provider handshakes by outcome"},
		[]string{"outcome"},
	)
	LakeStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lake_status_changes_total", Help: "Lake status updates by new status"},
		[]string{"status"},
	)
)

func Register() {
	prometheus.MustRegister(ProcessedEvents, FailedEvents, DLQEvents, HTTPRequests, AuthAttempts, LakeStatusChanges)
}

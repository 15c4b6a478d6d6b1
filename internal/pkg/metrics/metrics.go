package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every truckhub collector and backs the /metrics endpoint.
var Registry = prometheus.NewRegistry()

var (
	// LiveTrucks is the number of trucks currently broadcasting, by mode.
	LiveTrucks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "truckhub_live_trucks",
			Help: "Number of trucks currently broadcasting.",
		},
		[]string{"mode"}, // mode: mobile/static
	)

	// BroadcastTransitionsTotal counts applied status transitions.
	BroadcastTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truckhub_broadcast_transitions_total",
			Help: "Total number of truck status transitions.",
		},
		[]string{"event"}, // event: start_mobile/start_static/stop/preempt
	)

	// NotificationsTotal counts favorite notifications by delivery result.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truckhub_notifications_total",
			Help: "Total number of favorite-truck notifications.",
		},
		[]string{"result"}, // result: sent/failed
	)

	// PublishFailuresTotal counts failed outbound deliveries.
	PublishFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truckhub_publish_failures_total",
			Help: "Total number of failed status, notification or archive deliveries.",
		},
		[]string{"sink"}, // sink: status/notification/archive
	)

	// RequestsTotal counts customer requests by final status.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truckhub_requests_total",
			Help: "Total number of customer requests by status.",
		},
		[]string{"status"},
	)

	// WatchersActive is the number of users with a live favorites watcher.
	WatchersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "truckhub_watchers_active",
			Help: "Number of users currently watching their favorites.",
		},
	)

	// HTTPRequestDuration records API latency by route and status code.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "truckhub_http_request_duration_seconds",
			Help:    "Latency of HTTP API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		LiveTrucks,
		BroadcastTransitionsTotal,
		NotificationsTotal,
		PublishFailuresTotal,
		RequestsTotal,
		WatchersActive,
		HTTPRequestDuration,
	)
}

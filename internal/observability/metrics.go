package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	realtimeConnections     prometheus.Gauge
	realtimeEventsPublished *prometheus.CounterVec
	realtimeEventsDropped   *prometheus.CounterVec
	chatMessagesSent        prometheus.Counter
	notificationsCreated    prometheus.Counter
	callSessionsActive      prometheus.Gauge
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used by the realtime core.
func RegisterMetrics() {
	registerOnce.Do(func() {
		realtimeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Number of websocket connections currently attached.",
		})

		realtimeEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_published_total",
			Help: "Total number of events fanned out to channels.",
		}, []string{"event"})

		realtimeEventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Total number of per-connection deliveries dropped for slow clients.",
		}, []string{"event"})

		chatMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of chat messages persisted and broadcast.",
		})

		notificationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notification records created.",
		})

		callSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "call_sessions_active",
			Help: "Number of call sessions currently ringing or active.",
		})

		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(
			realtimeConnections,
			realtimeEventsPublished,
			realtimeEventsDropped,
			chatMessagesSent,
			notificationsCreated,
			callSessionsActive,
			apiRequestsTotal,
			apiLatencySeconds,
		)
	})
}

// RealtimeConnections exposes the attached-connection gauge.
func RealtimeConnections() prometheus.Gauge {
	RegisterMetrics()
	return realtimeConnections
}

// RealtimeEventsPublished exposes the fan-out counter.
func RealtimeEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsPublished
}

// RealtimeEventsDropped exposes the dropped-delivery counter.
func RealtimeEventsDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsDropped
}

// ChatMessagesSent exposes the persisted-message counter.
func ChatMessagesSent() prometheus.Counter {
	RegisterMetrics()
	return chatMessagesSent
}

// NotificationsCreated exposes the notification counter.
func NotificationsCreated() prometheus.Counter {
	RegisterMetrics()
	return notificationsCreated
}

// CallSessionsActive exposes the in-progress call gauge.
func CallSessionsActive() prometheus.Gauge {
	RegisterMetrics()
	return callSessionsActive
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

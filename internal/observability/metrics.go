package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	decisionsTotal         *prometheus.CounterVec
	stageTransitionsTotal  *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec
	sseClientsActive       prometheus.Gauge
	threadConnectionsTotal prometheus.Counter
	threadMessagesSent     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iris_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_workflow_decisions_total",
			Help: "Review decisions recorded, by entity, tier and outcome.",
		}, []string{"entity", "tier", "outcome"})

		stageTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_project_stage_transitions_total",
			Help: "Project stage changes, by previous and new stage.",
		}, []string{"from", "to"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_notifications_published_total",
			Help: "Notifications published, by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iris_sse_clients_active",
			Help: "Currently connected SSE notification subscribers.",
		})

		threadConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iris_thread_connections_total",
			Help: "Websocket connections accepted onto report threads.",
		})

		threadMessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_thread_messages_sent_total",
			Help: "Report thread messages delivered, by author role.",
		}, []string{"author_role"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			decisionsTotal,
			stageTransitionsTotal,
			notificationsTotal,
			sseClientsActive,
			threadConnectionsTotal,
			threadMessagesSent,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Decisions exposes the counter for review decisions.
func Decisions() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionsTotal
}

// StageTransitions exposes the counter for project stage changes.
func StageTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return stageTransitionsTotal
}

// NotificationsPublishedTotal exposes the counter for published notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// SSEClientsActive exposes the gauge of connected SSE subscribers.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// ThreadConnectionsTotal exposes the counter for thread websocket connections.
func ThreadConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return threadConnectionsTotal
}

// ThreadMessagesSent exposes the counter for delivered thread messages.
func ThreadMessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return threadMessagesSent
}

// Package metrics provides Prometheus metrics for the phone agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_phone_agent"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Call metrics
	CallsStarted   prometheus.Counter
	CallsCompleted prometheus.Counter
	CallsActive    prometheus.Gauge

	// Turn metrics
	TurnsTotal *prometheus.CounterVec

	// Generation metrics
	GenerationLatency prometheus.Histogram
	GenerationErrors  prometheus.Counter

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal  *prometheus.CounterVec
	KafkaPublishErrors *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CallsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_started_total",
			Help:      "Total number of calls answered",
		}),
		CallsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_completed_total",
			Help:      "Total number of calls that produced a complete record",
		}),
		CallsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_active",
			Help:      "Number of currently tracked live calls",
		}),

		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of dialogue turns handled",
		}, []string{"outcome"}),

		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_seconds",
			Help:      "Latency of generation requests in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		GenerationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Total number of failed generation requests",
		}),

		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of follow-up messages by status",
		}, []string{"status"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka events published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
	}
}

// RecordCallStarted records a call being answered.
func (m *Metrics) RecordCallStarted() {
	m.CallsStarted.Inc()
}

// RecordCallCompleted records a call completing its record.
func (m *Metrics) RecordCallCompleted() {
	m.CallsCompleted.Inc()
}

// SetActiveCalls records the current live-call count.
func (m *Metrics) SetActiveCalls(n int) {
	m.CallsActive.Set(float64(n))
}

// RecordTurn records a handled turn by outcome.
func (m *Metrics) RecordTurn(outcome string) {
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records one generation request.
func (m *Metrics) ObserveGeneration(seconds float64, err error) {
	m.GenerationLatency.Observe(seconds)
	if err != nil {
		m.GenerationErrors.Inc()
	}
}

// RecordNotification records a follow-up message attempt.
func (m *Metrics) RecordNotification(status string) {
	m.NotificationsTotal.WithLabelValues(status).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

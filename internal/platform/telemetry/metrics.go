package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records interaction endpoint outcomes.
type Metrics struct {
	requests     *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	interactions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	panics       prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interactions_requests_total",
				Help: "Total number of interaction webhook requests by outcome",
			},
			[]string{"outcome"},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interactions_rejections_total",
				Help: "Total number of rejected interaction webhooks by reason",
			},
			[]string{"reason"},
		),
		interactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interactions_received_total",
				Help: "Total number of authenticated interactions by type",
			},
			[]string{"type"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "interactions_request_duration_seconds",
				Help:    "Interaction webhook handling latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		panics: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "interactions_panics_recovered_total",
				Help: "Total number of panics recovered while serving requests",
			},
		),
	}
}

func (m *Metrics) ObserveOutcome(outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRejection(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveInteraction(kind string) {
	m.interactions.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObservePanic() {
	m.panics.Inc()
}

// MetricsHandler serves the collectors gathered by g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

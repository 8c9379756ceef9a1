package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facemood"

// Analysis outcomes
const (
	OutcomeFaces   = "faces"
	OutcomeNoFace  = "no_face"
	OutcomeFailed  = "failed"
	OutcomeNoImage = "no_image"
)

// Push delivery results
const (
	PushSent    = "sent"
	PushFailed  = "failed"
	PushExpired = "expired"
)

// Metrics owns its registry so tests can build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	analyses         *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	facesDetected    prometheus.Histogram
	pushDeliveries   *prometheus.CounterVec
	subscriptions    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Image analyses by provider and outcome.",
		}, []string{"provider", "outcome"}),
		analysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent waiting on the face provider.",
			Buckets:   []float64{.1, .25, .5, 1, 2, 5, 10},
		}, []string{"provider"}),
		facesDetected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "faces_per_image",
			Help:      "Number of faces found per analyzed image.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
		pushDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_deliveries_total",
			Help:      "Web Push deliveries by result.",
		}, []string{"result"}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "push_subscriptions",
			Help:      "Registered push subscriptions.",
		}),
	}

	m.registry.MustRegister(
		m.analyses,
		m.analysisDuration,
		m.facesDetected,
		m.pushDeliveries,
		m.subscriptions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveAnalysis(provider, outcome string, faces int, d time.Duration) {
	m.analyses.WithLabelValues(provider, outcome).Inc()
	if outcome == OutcomeNoImage {
		return
	}
	m.analysisDuration.WithLabelValues(provider).Observe(d.Seconds())
	if outcome != OutcomeFailed {
		m.facesDetected.Observe(float64(faces))
	}
}

func (m *Metrics) ObservePush(result string) {
	m.pushDeliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) SetSubscriptions(n int) {
	m.subscriptions.Set(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

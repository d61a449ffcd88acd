package console

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for the session controller.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SessionsTotal      prometheus.Counter
	SessionsActive     prometheus.Gauge
	EventsTotal        *prometheus.CounterVec
	AudioBytesTotal    *prometheus.CounterVec
	InterruptionsTotal prometheus.Counter
	ErrorsTotal        prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "voice_console"
	}

	registry := prometheus.NewRegistry()

	sessionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Total number of sessions connected",
	})
	sessionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Currently connected sessions",
	})
	eventsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Protocol events recorded, by source",
	}, []string{"source"})
	audioBytesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audio_bytes_total",
		Help:      "PCM bytes streamed, by direction",
	}, []string{"direction"})
	interruptionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interruptions_total",
		Help:      "Barge-in interruptions with an active track",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Client errors observed",
	})

	registry.MustRegister(
		sessionsTotal,
		sessionsActive,
		eventsTotal,
		audioBytesTotal,
		interruptionsTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:           registry,
		SessionsTotal:      sessionsTotal,
		SessionsActive:     sessionsActive,
		EventsTotal:        eventsTotal,
		AudioBytesTotal:    audioBytesTotal,
		InterruptionsTotal: interruptionsTotal,
		ErrorsTotal:        errorsTotal,
	}
}

// Handler returns an HTTP handler serving the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

func (m *Metrics) sessionEnded() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) eventRecorded(source string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) audioSent(n int) {
	if m == nil {
		return
	}
	m.AudioBytesTotal.WithLabelValues("sent").Add(float64(n))
}

func (m *Metrics) audioReceived(n int) {
	if m == nil {
		return
	}
	m.AudioBytesTotal.WithLabelValues("received").Add(float64(n))
}

func (m *Metrics) interrupted() {
	if m == nil {
		return
	}
	m.InterruptionsTotal.Inc()
}

func (m *Metrics) errorSeen() {
	if m == nil {
		return
	}
	m.ErrorsTotal.Inc()
}

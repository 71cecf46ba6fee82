package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/specparse/source"
)

// Metrics records routing outcomes. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	parses    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	warnings  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the router collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specparse",
			Name:      "parses_total",
			Help:      "Spec parse calls by producing parser and outcome.",
		}, []string{"parser", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specparse",
			Name:      "llm_fallbacks_total",
			Help:      "Transitions to the LLM parser by reason.",
		}, []string{"reason"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specparse",
			Name:      "warnings_total",
			Help:      "Routing warnings by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "specparse",
			Name:      "parse_duration_seconds",
			Help:      "Wall time of a spec parse call.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"parser"}),
	}
	if reg != nil {
		reg.MustRegister(m.parses, m.fallbacks, m.warnings, m.duration)
	}
	return m
}

// fallback reasons
const (
	reasonRequested        = "requested"
	reasonUnknownExtension = "unknown_extension"
	reasonParseFailed      = "parse_failed"
)

func (m *Metrics) observeParse(format source.Format, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.parses.WithLabelValues(format.String(), outcome).Inc()
	m.duration.WithLabelValues(format.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) observeFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeWarnings(warnings []source.Warning) {
	if m == nil {
		return
	}
	for _, w := range warnings {
		m.warnings.WithLabelValues(string(w.Kind)).Inc()
	}
}

package events

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink updates Prometheus counters and histograms from
// request_traced and resolve_error events. Everything else is ignored; the
// other three variants have no numeric shape worth exporting.
type MetricsSink struct {
	resolutions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	resolveErrs *prometheus.CounterVec
}

// NewMetricsSink registers its collectors against reg and returns a Sink
// ready to be composed into a Fanout.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	s := &MetricsSink{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bunnylol",
			Name:      "resolutions_total",
			Help:      "Resolved queries by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bunnylol",
			Name:      "plugin_invocation_seconds",
			Help:      "Latency of a single resolved query, including plugin invocation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		resolveErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bunnylol",
			Name:      "resolve_errors_total",
			Help:      "Plugin invocation failures during resolution, by error kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(s.resolutions, s.latency, s.resolveErrs)
	return s
}

// Emit implements Sink.
func (s *MetricsSink) Emit(evt Event) {
	switch evt.Kind {
	case KindRequestTraced:
		outcome, _ := evt.Fields["outcome"].(string)
		s.resolutions.WithLabelValues(outcome).Inc()
		if ms, ok := evt.Fields["latency_ms"].(int64); ok {
			s.latency.WithLabelValues(outcome).Observe(float64(ms) / 1000)
		}
	case KindResolveError:
		kind, _ := evt.Fields["kind"].(string)
		s.resolveErrs.WithLabelValues(kind).Inc()
	}
}

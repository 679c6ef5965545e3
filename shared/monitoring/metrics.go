package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meteo_display"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics are the Prometheus series exported on /metrics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	sourceEmpty    *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	lastPublish    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Fetch cycles by outcome.",
		}, []string{"outcome"}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of completed fetch cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		sourceEmpty: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_empty_total",
			Help:      "Cycles in which a source contributed nothing.",
		}, []string{"source"}),
		sourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Time spent fetching each source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		lastPublish: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_publish_timestamp_seconds",
			Help:      "Unix time of the last published snapshot.",
		}),
	}
}

func (m *Metrics) observeCycle(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		m.cycleDuration.Observe(duration.Seconds())
	}
	if outcome == OutcomeSuccess {
		m.lastPublish.SetToCurrentTime()
	}
}

// ObserveSource records one source fetch
func (m *Metrics) ObserveSource(source string, duration time.Duration, empty bool) {
	if m == nil {
		return
	}
	m.sourceDuration.WithLabelValues(source).Observe(duration.Seconds())
	if empty {
		m.sourceEmpty.WithLabelValues(source).Inc()
	}
}

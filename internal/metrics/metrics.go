// Package metrics exposes record-level Prometheus metrics on a private
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels beyond failure kinds.
const (
	OutcomeOK      = "ok"
	OutcomeFlagged = "flagged"
)

type Recorder struct {
	registry    *prometheus.Registry
	records     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	completions *prometheus.HistogramVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalognorm",
			Name:      "records_total",
			Help:      "Records processed, by pipeline and outcome.",
		}, []string{"pipeline", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "catalognorm",
			Name:      "record_duration_seconds",
			Help:      "Time to transform one record.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"pipeline"}),
		completions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "catalognorm",
			Name:      "completion_duration_seconds",
			Help:      "Time spent in one completion call, by stage and outcome.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage", "outcome"}),
	}
	r.registry.MustRegister(r.records, r.duration, r.completions)
	return r
}

// Observe counts one record. outcome is OutcomeOK, OutcomeFlagged or a
// failure kind.
func (r *Recorder) Observe(pipeline, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(pipeline, outcome).Inc()
	r.duration.WithLabelValues(pipeline).Observe(took.Seconds())
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

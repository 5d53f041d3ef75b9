// Package metrics exposes pipeline instrumentation as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/docsense/constants"
)

const namespace = "docsense"

// Metrics groups the pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	decisions     *prometheus.CounterVec
	documents     *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Completed runs by decision.",
		}, []string{"decision"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Completed runs by classified document type.",
		}, []string{"type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Aborted runs by stage and error code.",
		}, []string{"stage", "code"}),
	}
	for _, c := range []prometheus.Collector{m.stageDuration, m.decisions, m.documents, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveStage records how long stage took.
func (m *Metrics) ObserveStage(stage constants.Stage, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// RecordResult counts a finished run.
func (m *Metrics) RecordResult(docType constants.DocumentType, decision constants.Decision) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(string(docType)).Inc()
	m.decisions.WithLabelValues(string(decision)).Inc()
}

// RecordFailure counts a run aborted at stage with the given error code.
func (m *Metrics) RecordFailure(stage constants.Stage, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "INTERNAL"
	}
	m.failures.WithLabelValues(string(stage), code).Inc()
}

// Package metrics holds the Prometheus collectors for job execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "media_toolkit"
	Subsystem = "runner"
)

// Metrics holds the collectors updated by the job runner. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	JobsSubmittedTotal     *prometheus.CounterVec
	JobsFinishedTotal      *prometheus.CounterVec
	JobsRunning            prometheus.Gauge
	JobDurationSeconds     *prometheus.HistogramVec
	AdapterAttemptsTotal   *prometheus.CounterVec
	AdapterDurationSeconds *prometheus.HistogramVec
	EventsDroppedTotal     prometheus.Counter
}

// New creates and registers all collectors on reg (the default registerer
// when reg is nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		JobsSubmittedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "jobs_submitted_total",
			Help:      "Jobs accepted by the runner",
		}, []string{"kind"}),
		JobsFinishedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "jobs_finished_total",
			Help:      "Jobs that reached a terminal state",
		}, []string{"kind", "status"}),
		JobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "jobs_running",
			Help:      "Jobs currently executing",
		}),
		JobDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "job_duration_seconds",
			Help:      "Wall time from start to terminal state",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 600, 1800},
		}, []string{"kind"}),
		AdapterAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "adapter_attempts_total",
			Help:      "Adapter invocations by outcome",
		}, []string{"adapter", "outcome"}),
		AdapterDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "adapter_duration_seconds",
			Help:      "Adapter invocation wall time",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
		}, []string{"adapter"}),
		EventsDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "events_dropped_total",
			Help:      "Log and progress events dropped under observer backpressure",
		}),
	}
}

func (m *Metrics) JobSubmitted(kind string) {
	if m == nil {
		return
	}
	m.JobsSubmittedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsRunning.Inc()
}

func (m *Metrics) JobFinished(kind, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobsRunning.Dec()
	m.JobsFinishedTotal.WithLabelValues(kind, status).Inc()
	m.JobDurationSeconds.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// AdapterAttempt records one adapter invocation; outcome is "success",
// "unavailable", "failed" or "panic".
func (m *Metrics) AdapterAttempt(adapter, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AdapterAttemptsTotal.WithLabelValues(adapter, outcome).Inc()
	m.AdapterDurationSeconds.WithLabelValues(adapter).Observe(elapsed.Seconds())
}

func (m *Metrics) EventsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EventsDroppedTotal.Add(float64(n))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records worker job outcomes and durations.
type CronJobMetrics struct {
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewCronJobMetrics registers the worker job metrics on the provided
// registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	successes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_job_success_total",
		Help: "Worker jobs that completed without error.",
	}, []string{"job"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_job_failure_total",
		Help: "Worker jobs that returned an error.",
	}, []string{"job"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_job_duration_seconds",
		Help:    "Worker job run durations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(successes, failures, durations)
	return &CronJobMetrics{
		successes: successes,
		failures:  failures,
		durations: durations,
	}
}

// IncSuccess counts a successful run of the named job.
func (m *CronJobMetrics) IncSuccess(job string) {
	if m == nil || m.successes == nil {
		return
	}
	m.successes.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure counts a failed run of the named job.
func (m *CronJobMetrics) IncFailure(job string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(job)).Inc()
}

// ObserveDuration records how long the named job ran.
func (m *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.durations == nil {
		return
	}
	m.durations.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

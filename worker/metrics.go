package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	jobResultCompleted = "completed"
	jobResultFailed    = "failed"
	jobResultInvalid   = "invalid"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	jobs             *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	callbackFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studioworkers_jobs_total",
			Help: "Total number of jobs handled, by outcome.",
		}, []string{"worker", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studioworkers_job_duration_seconds",
			Help:    "Time from payload parse to terminal callback.",
			Buckets: prometheus.DefBuckets,
		}, []string{"worker"}),
		callbackFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studioworkers_callback_failures_total",
			Help: "Total number of status callbacks that could not be delivered.",
		}, []string{"worker"}),
	}
}

func (m *Metrics) observe(worker, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(worker, status).Inc()
	if status != jobResultInvalid {
		m.duration.WithLabelValues(worker).Observe(d.Seconds())
	}
}

func (m *Metrics) callbackFailed(worker string) {
	if m == nil {
		return
	}
	m.callbackFailures.WithLabelValues(worker).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics records outcomes and durations for order fulfillment sagas.
type SagaMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewSagaMetrics registers the saga metrics on the provided registerer.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		return &SagaMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saga_duration_seconds",
		Help:    "Duration of order fulfillment sagas in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_success",
		Help: "Successful saga executions.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_failure",
		Help: "Failed saga executions.",
	}, []string{"operation", "code"})
	reg.MustRegister(duration, success, failure)
	return &SagaMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named saga operation.
func (s *SagaMetrics) ObserveDuration(operation string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (s *SagaMetrics) IncSuccess(operation string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(operation).Inc()
}

// IncFailure increments the failure counter for the named operation and
// taxonomy code.
func (s *SagaMetrics) IncFailure(operation, code string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(operation, code).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RemoteCallMetrics records calls made to upstream platforms.
type RemoteCallMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewRemoteCallMetrics registers the upstream call metrics on the provided registerer.
func NewRemoteCallMetrics(reg prometheus.Registerer) *RemoteCallMetrics {
	if reg == nil {
		return &RemoteCallMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_call_duration_seconds",
		Help:    "Duration of upstream platform calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "operation"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_call_total",
		Help: "Upstream platform calls by outcome.",
	}, []string{"service", "operation", "outcome"})
	reg.MustRegister(duration, calls)
	return &RemoteCallMetrics{
		duration: duration,
		calls:    calls,
	}
}

// Observe records one finished call.
func (m *RemoteCallMetrics) Observe(service, operation string, elapsed time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	service, operation = normalizeLabel(service), normalizeLabel(operation)
	m.duration.WithLabelValues(service, operation).Observe(elapsed.Seconds())
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.calls.WithLabelValues(service, operation, outcome).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts synchronizer degradations.
type CartMetrics struct {
	fallback        *prometheus.CounterVec
	refreshFailures prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	fallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_local_fallback_total",
		Help: "Cart states degraded to local or stale items because the remote cart was unavailable.",
	}, []string{"reason"})
	refresh := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_refresh_failures_total",
		Help: "Authoritative refreshes that failed after a successful mutation.",
	})
	reg.MustRegister(fallback, refresh)
	return &CartMetrics{fallback: fallback, refreshFailures: refresh}
}

// IncFallback counts one degraded cart state.
func (m *CartMetrics) IncFallback(reason string) {
	if m == nil || m.fallback == nil {
		return
	}
	m.fallback.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncRefreshFailure counts one failed post-mutation refresh.
func (m *CartMetrics) IncRefreshFailure() {
	if m == nil || m.refreshFailures == nil {
		return
	}
	m.refreshFailures.Inc()
}

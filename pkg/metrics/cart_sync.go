package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartSyncMetrics records how the cart container talks to the remote cart service.
type CartSyncMetrics struct {
	duration        *prometheus.HistogramVec
	remoteFailures  *prometheus.CounterVec
	localFallbacks  *prometheus.CounterVec
	remoteAvailable prometheus.Gauge
}

// NewCartSyncMetrics registers the cart sync metrics on the provided registerer.
func NewCartSyncMetrics(reg prometheus.Registerer) *CartSyncMetrics {
	if reg == nil {
		return &CartSyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_remote_call_duration_seconds",
		Help:    "Duration of remote cart calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	remoteFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_remote_failures_total",
		Help: "Failed remote cart calls.",
	}, []string{"operation"})
	localFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_local_fallbacks_total",
		Help: "Cart operations applied to the local cache only.",
	}, []string{"operation"})
	remoteAvailable := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_remote_available",
		Help: "1 while the session is synchronized with the remote cart service, 0 once degraded.",
	})
	reg.MustRegister(duration, remoteFailures, localFallbacks, remoteAvailable)
	return &CartSyncMetrics{
		duration:        duration,
		remoteFailures:  remoteFailures,
		localFallbacks:  localFallbacks,
		remoteAvailable: remoteAvailable,
	}
}

// ObserveRemoteDuration records the duration of a remote call.
func (m *CartSyncMetrics) ObserveRemoteDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

func (m *CartSyncMetrics) IncRemoteFailure(op string) {
	if m == nil || m.remoteFailures == nil {
		return
	}
	m.remoteFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *CartSyncMetrics) IncLocalFallback(op string) {
	if m == nil || m.localFallbacks == nil {
		return
	}
	m.localFallbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

// SetRemoteAvailable flips the sync-mode gauge.
func (m *CartSyncMetrics) SetRemoteAvailable(available bool) {
	if m == nil || m.remoteAvailable == nil {
		return
	}
	if available {
		m.remoteAvailable.Set(1)
		return
	}
	m.remoteAvailable.Set(0)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

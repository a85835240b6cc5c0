package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records hosted checkout session outcomes.
type CheckoutMetrics struct {
	duration prometheus.Histogram
	created  prometheus.Counter
	failures *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_session_duration_seconds",
		Help:    "Duration of checkout session creation in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Hosted checkout sessions created.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_session_failures_total",
		Help: "Checkout session attempts that failed, by error code.",
	}, []string{"code"})
	reg.MustRegister(duration, created, failures)
	return &CheckoutMetrics{
		duration: duration,
		created:  created,
		failures: failures,
	}
}

func (m *CheckoutMetrics) ObserveDuration(duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(duration.Seconds())
}

func (m *CheckoutMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *CheckoutMetrics) IncFailure(code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

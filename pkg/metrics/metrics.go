package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// POSMetrics records counter activity for the point of sale.
type POSMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	salesCompleted   *prometheus.CounterVec
	salesVoided      prometheus.Counter
	checkoutFailures *prometheus.CounterVec
}

// NewPOSMetrics registers the POS metrics on the provided registerer. A nil
// registerer yields a no-op recorder, which keeps tests quiet.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	salesCompleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_completed_total",
		Help: "Completed sales by payment method type.",
	}, []string{"payment_type"})
	salesVoided := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_voided_total",
		Help: "Sales voided after completion.",
	})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_failures_total",
		Help: "Checkout submissions rejected or failed, by error code.",
	}, []string{"code"})
	reg.MustRegister(checkoutDuration, salesCompleted, salesVoided, checkoutFailures)
	return &POSMetrics{
		checkoutDuration: checkoutDuration,
		salesCompleted:   salesCompleted,
		salesVoided:      salesVoided,
		checkoutFailures: checkoutFailures,
	}
}

// ObserveCheckout records the duration of one checkout attempt.
func (m *POSMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncSaleCompleted increments the completed-sale counter.
func (m *POSMetrics) IncSaleCompleted(paymentType string) {
	if m == nil || m.salesCompleted == nil {
		return
	}
	m.salesCompleted.WithLabelValues(normalizeLabel(paymentType)).Inc()
}

// IncSaleVoided increments the voided-sale counter.
func (m *POSMetrics) IncSaleVoided() {
	if m == nil || m.salesVoided == nil {
		return
	}
	m.salesVoided.Inc()
}

// IncCheckoutFailure increments the failure counter for the given error code.
func (m *POSMetrics) IncCheckoutFailure(code string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

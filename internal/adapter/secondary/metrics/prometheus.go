package metrics

import (
	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/port/output"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is a secondary adapter that implements PaymentMetrics output port
type PrometheusMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// NewPrometheusMetrics creates the payment counters and registers them on reg
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_transitions_total",
				Help: "A counter for persisted payment status changes",
			},
			[]string{"from", "to"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_operations_rejected_total",
				Help: "A counter for payment operations refused by the lifecycle rules",
			},
			[]string{"operation", "reason"},
		),
	}
	reg.MustRegister(m.transitions, m.rejections)
	return m
}

var _ output.PaymentMetrics = (*PrometheusMetrics)(nil)

// ObserveTransition records a status change; from is empty for new payments
func (m *PrometheusMetrics) ObserveTransition(from, to core.PaymentStatus) {
	if from == "" {
		from = "NEW"
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// ObserveRejection records a refused operation
func (m *PrometheusMetrics) ObserveRejection(operation, reason string) {
	m.rejections.WithLabelValues(operation, reason).Inc()
}

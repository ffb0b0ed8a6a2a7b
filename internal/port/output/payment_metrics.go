package output

import "github.com/cashflow/payment-lifecycle/internal/core"

// PaymentMetrics is an output port for lifecycle instrumentation
type PaymentMetrics interface {
	// ObserveTransition records a persisted status change
	ObserveTransition(from, to core.PaymentStatus)
	// ObserveRejection records an operation refused by the engine
	ObserveRejection(operation, reason string)
}

// NopMetrics records nothing
type NopMetrics struct{}

func (NopMetrics) ObserveTransition(core.PaymentStatus, core.PaymentStatus) {}

func (NopMetrics) ObserveRejection(string, string) {}

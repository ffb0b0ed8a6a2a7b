package output

import (
	"context"
	"time"

	"github.com/cashflow/payment-lifecycle/internal/core"
)

// PaymentEventType names a lifecycle event
type PaymentEventType string

const (
	PaymentEventCreated   PaymentEventType = "payment.created"
	PaymentEventProcessed PaymentEventType = "payment.processing"
	PaymentEventCompleted PaymentEventType = "payment.completed"
	PaymentEventFailed    PaymentEventType = "payment.failed"
	PaymentEventRefunded  PaymentEventType = "payment.refunded"
	PaymentEventCancelled PaymentEventType = "payment.cancelled"
)

// EventTypeFor returns the event published when a payment enters status
func EventTypeFor(status core.PaymentStatus) PaymentEventType {
	switch status {
	case core.PaymentStatusPending:
		return PaymentEventCreated
	case core.PaymentStatusProcessing:
		return PaymentEventProcessed
	case core.PaymentStatusCompleted:
		return PaymentEventCompleted
	case core.PaymentStatusFailed:
		return PaymentEventFailed
	case core.PaymentStatusRefunded:
		return PaymentEventRefunded
	default:
		return PaymentEventCancelled
	}
}

// PaymentEvent is published after a payment is persisted in a new status
type PaymentEvent struct {
	Type          PaymentEventType   `json:"type"`
	PaymentID     int64              `json:"payment_id"`
	TransactionID string             `json:"transaction_id"`
	MerchantID    string             `json:"merchant_id"`
	Status        core.PaymentStatus `json:"status"`
	Timestamp     time.Time          `json:"timestamp"`
}

// PaymentMessaging is an output port (secondary port) for payment messaging
// Secondary adapters (RabbitMQ implementations) will implement this
type PaymentMessaging interface {
	// PublishPaymentEvent publishes a payment lifecycle event
	PublishPaymentEvent(ctx context.Context, event PaymentEvent) error
	// Close closes the messaging connection
	Close() error
}

// NopMessaging discards every event
type NopMessaging struct{}

func (NopMessaging) PublishPaymentEvent(context.Context, PaymentEvent) error { return nil }

func (NopMessaging) Close() error { return nil }

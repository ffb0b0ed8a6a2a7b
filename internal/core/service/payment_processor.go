package service

import (
	"context"
	"fmt"

	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/port/input"
	"github.com/cashflow/payment-lifecycle/internal/port/output"
	"github.com/rs/zerolog"
)

// PaymentProcessor settles payments announced by lifecycle events
type PaymentProcessor struct {
	paymentService input.PaymentService
}

// NewPaymentProcessor creates a new payment processor
func NewPaymentProcessor(paymentService input.PaymentService) *PaymentProcessor {
	return &PaymentProcessor{
		paymentService: paymentService,
	}
}

// HandleEvent processes the payment named by a payment.created event.
// Other event types are ignored. A payment that is missing or already past
// PENDING counts as handled so the message is not redelivered.
func (p *PaymentProcessor) HandleEvent(ctx context.Context, event output.PaymentEvent) error {
	logger := zerolog.Ctx(ctx).With().
		Int64("payment_id", event.PaymentID).
		Str("event", string(event.Type)).
		Logger()

	if event.Type != output.PaymentEventCreated {
		logger.Debug().Msg("ignoring event")
		return nil
	}

	payment, err := p.paymentService.ProcessPayment(logger.WithContext(ctx), event.PaymentID)
	if err != nil {
		if core.IsInvalidState(err) || core.IsNotFound(err) {
			logger.Warn().Err(err).Msg("payment already handled")
			return nil
		}
		return fmt.Errorf("failed to process payment: %w", err)
	}

	logger.Info().Str("status", string(payment.Status)).Msg("payment settled")
	return nil
}

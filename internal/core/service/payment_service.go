package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/port/input"
	"github.com/cashflow/payment-lifecycle/internal/port/output"
	"github.com/rs/zerolog"
)

const (
	opCreate    = "create"
	opProcess   = "process"
	opRefund    = "refund"
	opCancel    = "cancel"
	opSetStatus = "set_status"
)

// PaymentServiceImpl implements the PaymentService input port
type PaymentServiceImpl struct {
	paymentRepo    output.PaymentRepository
	paymentMsg     output.PaymentMessaging
	paymentMetrics output.PaymentMetrics
	now            func() time.Time
	newTxnID       func(time.Time) string
}

// Option configures a PaymentServiceImpl
type Option func(*PaymentServiceImpl)

// WithMetrics records transitions and rejections on m
func WithMetrics(m output.PaymentMetrics) Option {
	return func(s *PaymentServiceImpl) { s.paymentMetrics = m }
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *PaymentServiceImpl) { s.now = now }
}

// WithTransactionIDGenerator overrides transaction ID generation
func WithTransactionIDGenerator(gen func(time.Time) string) Option {
	return func(s *PaymentServiceImpl) { s.newTxnID = gen }
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo output.PaymentRepository,
	paymentMsg output.PaymentMessaging,
	opts ...Option,
) *PaymentServiceImpl {
	s := &PaymentServiceImpl{
		paymentRepo:    paymentRepo,
		paymentMsg:     paymentMsg,
		paymentMetrics: output.NopMetrics{},
		now:            func() time.Time { return time.Now().UTC() },
		newTxnID:       NewTransactionID,
	}
	if s.paymentMsg == nil {
		s.paymentMsg = output.NopMessaging{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ input.PaymentService = (*PaymentServiceImpl)(nil)

// CreatePayment creates a new payment
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, req input.CreatePaymentRequest) (*core.Payment, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("merchant_id", req.MerchantID).Msg("creating payment")

	req, err := validateCreateRequest(req)
	if err != nil {
		s.paymentMetrics.ObserveRejection(opCreate, "validation")
		return nil, err
	}

	now := s.now()
	payment := &core.Payment{
		TransactionID: s.newTxnID(now),
		MerchantID:    req.MerchantID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		CustomerEmail: req.CustomerEmail,
		Status:        core.PaymentStatusPending,
		Description:   req.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	s.afterSave(ctx, payment, "")

	logger.Info().
		Int64("payment_id", payment.ID).
		Str("transaction_id", payment.TransactionID).
		Msg("payment created")
	return payment, nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentServiceImpl) GetPayment(ctx context.Context, id int64) (*core.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, output.ErrPaymentNotFound) {
			return nil, &core.NotFoundError{Key: "id", Value: strconv.FormatInt(id, 10)}
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// GetPaymentByTransactionID retrieves a payment by transaction ID
func (s *PaymentServiceImpl) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*core.Payment, error) {
	payment, err := s.paymentRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, output.ErrPaymentNotFound) {
			return nil, &core.NotFoundError{Key: "transactionId", Value: transactionID}
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// ListPayments returns every payment
func (s *PaymentServiceImpl) ListPayments(ctx context.Context) ([]*core.Payment, error) {
	payments, err := s.paymentRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return nonNil(payments), nil
}

// ListPaymentsByMerchant returns every payment of a merchant
func (s *PaymentServiceImpl) ListPaymentsByMerchant(ctx context.Context, merchantID string) ([]*core.Payment, error) {
	payments, err := s.paymentRepo.FindByMerchantID(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list merchant payments: %w", err)
	}
	return nonNil(payments), nil
}

// ListPaymentsByCustomerEmail returns every payment made by a customer
func (s *PaymentServiceImpl) ListPaymentsByCustomerEmail(ctx context.Context, email string) ([]*core.Payment, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindByCustomerEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer payments: %w", err)
	}
	return nonNil(payments), nil
}

// ProcessPayment settles a pending payment.
// PROCESSING is persisted before COMPLETED so both states are observable.
func (s *PaymentServiceImpl) ProcessPayment(ctx context.Context, id int64) (*core.Payment, error) {
	zerolog.Ctx(ctx).Info().Int64("payment_id", id).Msg("processing payment")

	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !payment.CanProcess() {
		return nil, s.reject(opProcess, payment,
			fmt.Sprintf("payment cannot be processed in current status: %s", payment.Status))
	}

	if err := s.transition(ctx, payment, core.PaymentStatusProcessing); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, payment, core.PaymentStatusCompleted); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Int64("payment_id", id).Msg("payment processed")
	return payment, nil
}

// RefundPayment refunds a completed payment
func (s *PaymentServiceImpl) RefundPayment(ctx context.Context, id int64) (*core.Payment, error) {
	zerolog.Ctx(ctx).Info().Int64("payment_id", id).Msg("refunding payment")

	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !payment.CanRefund() {
		return nil, s.reject(opRefund, payment, "only completed payments can be refunded")
	}
	if err := s.transition(ctx, payment, core.PaymentStatusRefunded); err != nil {
		return nil, err
	}
	return payment, nil
}

// CancelPayment cancels a payment that has not been completed or refunded
func (s *PaymentServiceImpl) CancelPayment(ctx context.Context, id int64) (*core.Payment, error) {
	zerolog.Ctx(ctx).Info().Int64("payment_id", id).Msg("cancelling payment")

	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !payment.CanCancel() {
		return nil, s.reject(opCancel, payment, "cannot cancel completed or refunded payments")
	}
	if err := s.transition(ctx, payment, core.PaymentStatusCancelled); err != nil {
		return nil, err
	}
	return payment, nil
}

// SetStatus overwrites the status of a payment without transition checks
func (s *PaymentServiceImpl) SetStatus(ctx context.Context, id int64, status core.PaymentStatus) (*core.Payment, error) {
	zerolog.Ctx(ctx).Warn().
		Int64("payment_id", id).
		Str("status", string(status)).
		Msg("overriding payment status")

	if !status.Valid() {
		s.paymentMetrics.ObserveRejection(opSetStatus, "validation")
		return nil, core.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, payment, status); err != nil {
		return nil, err
	}
	return payment, nil
}

// Statistics returns payment counters
func (s *PaymentServiceImpl) Statistics(ctx context.Context) (*input.Statistics, error) {
	total, err := s.paymentRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}
	pending, err := s.paymentRepo.CountByStatus(ctx, core.PaymentStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending payments: %w", err)
	}
	completed, err := s.paymentRepo.FindByStatus(ctx, core.PaymentStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed payments: %w", err)
	}
	return &input.Statistics{
		TotalPayments:     total,
		PendingPayments:   pending,
		CompletedPayments: int64(len(completed)),
	}, nil
}

// transition persists payment in status to and publishes the change
func (s *PaymentServiceImpl) transition(ctx context.Context, payment *core.Payment, to core.PaymentStatus) error {
	from, fromUpdatedAt := payment.Status, payment.UpdatedAt
	readVersion := payment.Version

	payment.Status = to
	payment.UpdatedAt = s.now()

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		payment.Status, payment.UpdatedAt = from, fromUpdatedAt
		switch {
		case errors.Is(err, output.ErrVersionConflict):
			s.paymentMetrics.ObserveRejection("transition", "conflict")
			return &core.ConflictError{ID: payment.ID, Version: readVersion}
		case errors.Is(err, output.ErrPaymentNotFound):
			return &core.NotFoundError{Key: "id", Value: strconv.FormatInt(payment.ID, 10)}
		}
		return fmt.Errorf("failed to update payment: %w", err)
	}
	s.afterSave(ctx, payment, from)
	return nil
}

// afterSave records the metric and publishes the event for a persisted status
func (s *PaymentServiceImpl) afterSave(ctx context.Context, payment *core.Payment, from core.PaymentStatus) {
	s.paymentMetrics.ObserveTransition(from, payment.Status)

	event := output.PaymentEvent{
		Type:          output.EventTypeFor(payment.Status),
		PaymentID:     payment.ID,
		TransactionID: payment.TransactionID,
		MerchantID:    payment.MerchantID,
		Status:        payment.Status,
		Timestamp:     payment.UpdatedAt,
	}
	// The record is already durable, so a lost event must not fail the call.
	if err := s.paymentMsg.PublishPaymentEvent(ctx, event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Int64("payment_id", payment.ID).
			Str("event", string(event.Type)).
			Msg("failed to publish payment event")
	}
}

func (s *PaymentServiceImpl) reject(operation string, payment *core.Payment, message string) error {
	s.paymentMetrics.ObserveRejection(operation, "invalid_state")
	return &core.InvalidStateError{
		Operation: operation,
		Current:   payment.Status,
		Message:   message,
	}
}

func nonNil(payments []*core.Payment) []*core.Payment {
	if payments == nil {
		return []*core.Payment{}
	}
	return payments
}

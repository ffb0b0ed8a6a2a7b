package input

import (
	"context"

	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/shopspring/decimal"
)

// PaymentService is an input port (primary port) for payment operations
// Primary adapters (HTTP handlers, admin CLI, worker) will use this
type PaymentService interface {
	// CreatePayment validates the request and stores a new PENDING payment
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*core.Payment, error)

	// GetPayment retrieves a payment by ID
	GetPayment(ctx context.Context, id int64) (*core.Payment, error)

	// GetPaymentByTransactionID retrieves a payment by transaction ID
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*core.Payment, error)

	// ListPayments returns every payment
	ListPayments(ctx context.Context) ([]*core.Payment, error)

	// ListPaymentsByMerchant returns the payments of a merchant, possibly none
	ListPaymentsByMerchant(ctx context.Context, merchantID string) ([]*core.Payment, error)

	// ListPaymentsByCustomerEmail returns the payments of a customer, possibly none
	ListPaymentsByCustomerEmail(ctx context.Context, email string) ([]*core.Payment, error)

	// ProcessPayment settles a PENDING payment through PROCESSING to COMPLETED
	ProcessPayment(ctx context.Context, id int64) (*core.Payment, error)

	// RefundPayment moves a COMPLETED payment to REFUNDED
	RefundPayment(ctx context.Context, id int64) (*core.Payment, error)

	// CancelPayment moves a payment that is neither COMPLETED nor REFUNDED to CANCELLED
	CancelPayment(ctx context.Context, id int64) (*core.Payment, error)

	// SetStatus overwrites the status without transition checks.
	// Administrative use only; it bypasses the lifecycle rules.
	SetStatus(ctx context.Context, id int64, status core.PaymentStatus) (*core.Payment, error)

	// Statistics returns payment counters
	Statistics(ctx context.Context) (*Statistics, error)
}

// CreatePaymentRequest represents the request to create a payment
type CreatePaymentRequest struct {
	MerchantID    string
	Amount        decimal.Decimal
	Currency      core.Currency
	PaymentMethod core.PaymentMethod
	CustomerEmail string
	Description   string
}

// Statistics is a point-in-time snapshot of payment counters.
// The three figures are read separately and may disagree under concurrent writes.
type Statistics struct {
	TotalPayments     int64 `json:"totalPayments"`
	PendingPayments   int64 `json:"pendingPayments"`
	CompletedPayments int64 `json:"completedPayments"`
}

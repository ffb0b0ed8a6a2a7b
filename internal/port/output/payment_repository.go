package output

import (
	"context"
	"errors"

	"github.com/cashflow/payment-lifecycle/internal/core"
)

var (
	// ErrPaymentNotFound is returned by lookups that match no record
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrVersionConflict is returned by Save when the record changed since it was read
	ErrVersionConflict = errors.New("payment version conflict")
	// ErrDuplicateTransactionID is returned by Save when inserting a transaction ID that is already stored
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
)

// PaymentRepository is an output port (secondary port) for payment data access
// Secondary adapters (database implementations) will implement this
type PaymentRepository interface {
	// Save inserts the payment when ID is zero, assigning ID and Version.
	// Otherwise it updates the record whose ID and Version match and bumps Version.
	Save(ctx context.Context, payment *core.Payment) error

	// FindByID retrieves a payment by its ID
	FindByID(ctx context.Context, id int64) (*core.Payment, error)

	// FindByTransactionID retrieves a payment by its transaction ID
	FindByTransactionID(ctx context.Context, transactionID string) (*core.Payment, error)

	// FindByMerchantID returns every payment of a merchant
	FindByMerchantID(ctx context.Context, merchantID string) ([]*core.Payment, error)

	// FindByCustomerEmail returns every payment made by a customer
	FindByCustomerEmail(ctx context.Context, email string) ([]*core.Payment, error)

	// FindByStatus returns every payment in status
	FindByStatus(ctx context.Context, status core.PaymentStatus) ([]*core.Payment, error)

	// FindAll returns every payment
	FindAll(ctx context.Context) ([]*core.Payment, error)

	// Count returns the number of stored payments
	Count(ctx context.Context) (int64, error)

	// CountByStatus returns the number of payments in status
	CountByStatus(ctx context.Context, status core.PaymentStatus) (int64, error)
}

package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
)

// PaymentStatuses lists every status in lifecycle order
var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusCancelled,
}

// Valid reports whether s is one of the enumerated statuses
func (s PaymentStatus) Valid() bool {
	for _, v := range PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParsePaymentStatus parses a status name, ignoring case and surrounding space
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	return status, status.Valid()
}

// Currency represents supported currencies
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
)

// Valid reports whether c is a supported currency
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyINR:
		return true
	}
	return false
}

// PaymentMethod represents supported payment instruments
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "CARD"
	PaymentMethodUPI        PaymentMethod = "UPI"
	PaymentMethodWallet     PaymentMethod = "WALLET"
	PaymentMethodNetBanking PaymentMethod = "NET_BANKING"
)

// Valid reports whether m is a supported payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodWallet, PaymentMethodNetBanking:
		return true
	}
	return false
}

const (
	// AmountScale is the number of decimal places an amount may carry
	AmountScale = 2
	// MaxDescriptionLength caps the stored description
	MaxDescriptionLength = 500
)

var (
	MinAmount = decimal.New(1, -AmountScale)
	MaxAmount = decimal.New(1000000, 0)
)

// Payment represents a payment domain entity
type Payment struct {
	ID            int64
	TransactionID string
	MerchantID    string
	Amount        decimal.Decimal
	Currency      Currency
	PaymentMethod PaymentMethod
	CustomerEmail string
	Status        PaymentStatus
	Description   string
	// Version is bumped by the store on every save; a save carrying a stale
	// version is rejected.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPending checks if payment is in pending status
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsTerminal checks if payment is in a terminal state
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusRefunded, PaymentStatusCancelled, PaymentStatusFailed:
		return true
	}
	return false
}

// CanProcess reports whether the payment may enter settlement
func (p *Payment) CanProcess() bool {
	return p.IsPending()
}

// CanRefund reports whether the payment may be refunded
func (p *Payment) CanRefund() bool {
	return p.Status == PaymentStatusCompleted
}

// CanCancel reports whether the payment may be cancelled.
// Every status except COMPLETED and REFUNDED qualifies, including the other
// terminal ones.
func (p *Payment) CanCancel() bool {
	return p.Status != PaymentStatusCompleted && p.Status != PaymentStatusRefunded
}

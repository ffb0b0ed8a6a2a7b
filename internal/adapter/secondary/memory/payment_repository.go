package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/port/output"
)

// PaymentRepository keeps payments in process memory.
// Records are copied on the way in and out so callers never share state with the store.
type PaymentRepository struct {
	mu       sync.RWMutex
	lastID   int64
	payments map[int64]core.Payment
	byTxnID  map[string]int64
}

// NewPaymentRepository creates an empty in-memory repository
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[int64]core.Payment),
		byTxnID:  make(map[string]int64),
	}
}

var _ output.PaymentRepository = (*PaymentRepository)(nil)

func (r *PaymentRepository) Save(_ context.Context, payment *core.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if payment.ID == 0 {
		if _, exists := r.byTxnID[payment.TransactionID]; exists {
			return output.ErrDuplicateTransactionID
		}
		r.lastID++
		payment.ID = r.lastID
		payment.Version = 1
		r.payments[payment.ID] = *payment
		r.byTxnID[payment.TransactionID] = payment.ID
		return nil
	}

	stored, ok := r.payments[payment.ID]
	if !ok {
		return output.ErrPaymentNotFound
	}
	if stored.Version != payment.Version {
		return output.ErrVersionConflict
	}

	// Only the mutable fields are taken from the caller.
	stored.Status = payment.Status
	stored.Description = payment.Description
	stored.UpdatedAt = payment.UpdatedAt
	stored.Version++
	r.payments[payment.ID] = stored
	payment.Version = stored.Version
	return nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id int64) (*core.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, output.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *PaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*core.Payment, error) {
	r.mu.RLock()
	id, ok := r.byTxnID[transactionID]
	r.mu.RUnlock()
	if !ok {
		return nil, output.ErrPaymentNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *PaymentRepository) FindByMerchantID(_ context.Context, merchantID string) ([]*core.Payment, error) {
	return r.filter(func(p *core.Payment) bool { return p.MerchantID == merchantID }), nil
}

func (r *PaymentRepository) FindByCustomerEmail(_ context.Context, email string) ([]*core.Payment, error) {
	return r.filter(func(p *core.Payment) bool { return p.CustomerEmail == email }), nil
}

func (r *PaymentRepository) FindByStatus(_ context.Context, status core.PaymentStatus) ([]*core.Payment, error) {
	return r.filter(func(p *core.Payment) bool { return p.Status == status }), nil
}

func (r *PaymentRepository) FindAll(_ context.Context) ([]*core.Payment, error) {
	return r.filter(func(*core.Payment) bool { return true }), nil
}

func (r *PaymentRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.payments)), nil
}

func (r *PaymentRepository) CountByStatus(_ context.Context, status core.PaymentStatus) (int64, error) {
	return int64(len(r.filter(func(p *core.Payment) bool { return p.Status == status }))), nil
}

// filter returns copies of the matching payments ordered by ID
func (r *PaymentRepository) filter(match func(*core.Payment) bool) []*core.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*core.Payment, 0)
	for _, p := range r.payments {
		p := p
		if match(&p) {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

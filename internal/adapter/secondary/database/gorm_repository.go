package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/cashflow/payment-lifecycle/internal/constant/model/db"
	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/port/output"
	"gorm.io/gorm"
)

// GormPaymentRepository is a secondary adapter that implements PaymentRepository output port
type GormPaymentRepository struct {
	gormDB *gorm.DB
}

// NewGormPaymentRepository creates a new GORM payment repository
func NewGormPaymentRepository(gormDB *gorm.DB) output.PaymentRepository {
	return &GormPaymentRepository{gormDB: gormDB}
}

// toCore converts db.Payment to core.Payment
func toCore(p *db.Payment) *core.Payment {
	return &core.Payment{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		MerchantID:    p.MerchantID,
		Amount:        p.Amount,
		Currency:      core.Currency(p.Currency),
		PaymentMethod: core.PaymentMethod(p.PaymentMethod),
		CustomerEmail: p.CustomerEmail,
		Status:        core.PaymentStatus(p.Status),
		Description:   p.Description,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// fromCore converts core.Payment to db.Payment
func fromCore(p *core.Payment) *db.Payment {
	return &db.Payment{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		MerchantID:    p.MerchantID,
		Amount:        p.Amount,
		Currency:      string(p.Currency),
		PaymentMethod: string(p.PaymentMethod),
		CustomerEmail: p.CustomerEmail,
		Status:        string(p.Status),
		Description:   p.Description,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toCoreSlice(rows []db.Payment) []*core.Payment {
	payments := make([]*core.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, toCore(&rows[i]))
	}
	return payments
}

// Save inserts a new payment or applies a version-checked update
func (r *GormPaymentRepository) Save(ctx context.Context, payment *core.Payment) error {
	if payment.ID == 0 {
		return r.create(ctx, payment)
	}
	return r.update(ctx, payment)
}

func (r *GormPaymentRepository) create(ctx context.Context, payment *core.Payment) error {
	dbPayment := fromCore(payment)
	dbPayment.Version = 1
	if err := r.gormDB.WithContext(ctx).Create(dbPayment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return output.ErrDuplicateTransactionID
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	// Update core entity with values set by the database and GORM hooks
	payment.ID = dbPayment.ID
	payment.Version = dbPayment.Version
	payment.CreatedAt = dbPayment.CreatedAt
	payment.UpdatedAt = dbPayment.UpdatedAt
	return nil
}

// update writes the mutable columns only; identity, amount and parties never change
func (r *GormPaymentRepository) update(ctx context.Context, payment *core.Payment) error {
	result := r.gormDB.WithContext(ctx).
		Model(&db.Payment{}).
		Where("id = ? AND version = ?", payment.ID, payment.Version).
		Updates(map[string]interface{}{
			"status":      string(payment.Status),
			"description": payment.Description,
			"updated_at":  payment.UpdatedAt,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.gormDB.WithContext(ctx).Model(&db.Payment{}).
			Where("id = ?", payment.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check payment: %w", err)
		}
		if count == 0 {
			return output.ErrPaymentNotFound
		}
		return output.ErrVersionConflict
	}

	payment.Version++
	return nil
}

// FindByID retrieves a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id int64) (*core.Payment, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByTransactionID retrieves a payment by its transaction ID
func (r *GormPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*core.Payment, error) {
	return r.first(ctx, "transaction_id = ?", transactionID)
}

func (r *GormPaymentRepository) first(ctx context.Context, query string, arg interface{}) (*core.Payment, error) {
	var dbPayment db.Payment
	if err := r.gormDB.WithContext(ctx).Where(query, arg).First(&dbPayment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, output.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return toCore(&dbPayment), nil
}

// FindByMerchantID returns every payment of a merchant
func (r *GormPaymentRepository) FindByMerchantID(ctx context.Context, merchantID string) ([]*core.Payment, error) {
	return r.find(ctx, "merchant_id = ?", merchantID)
}

// FindByCustomerEmail returns every payment made by a customer
func (r *GormPaymentRepository) FindByCustomerEmail(ctx context.Context, email string) ([]*core.Payment, error) {
	return r.find(ctx, "customer_email = ?", email)
}

// FindByStatus returns every payment in status
func (r *GormPaymentRepository) FindByStatus(ctx context.Context, status core.PaymentStatus) ([]*core.Payment, error) {
	return r.find(ctx, "status = ?", string(status))
}

// FindAll returns every payment
func (r *GormPaymentRepository) FindAll(ctx context.Context) ([]*core.Payment, error) {
	return r.find(ctx, "")
}

func (r *GormPaymentRepository) find(ctx context.Context, query string, args ...interface{}) ([]*core.Payment, error) {
	tx := r.gormDB.WithContext(ctx).Order("id")
	if query != "" {
		tx = tx.Where(query, args...)
	}
	var rows []db.Payment
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return toCoreSlice(rows), nil
}

// Count returns the number of stored payments
func (r *GormPaymentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.gormDB.WithContext(ctx).Model(&db.Payment{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of payments in status
func (r *GormPaymentRepository) CountByStatus(ctx context.Context, status core.PaymentStatus) (int64, error) {
	var count int64
	if err := r.gormDB.WithContext(ctx).Model(&db.Payment{}).
		Where("status = ?", string(status)).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

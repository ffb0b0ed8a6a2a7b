package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment represents a payment entity in the database
type Payment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	MerchantID    string          `gorm:"type:varchar(255);not null;index" json:"merchant_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentMethod string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	CustomerEmail string          `gorm:"type:varchar(255);not null;index" json:"customer_email"`
	Status        string          `gorm:"type:varchar(20);not null;index" json:"status"`
	Description   string          `gorm:"type:varchar(500)" json:"description"`
	Version       int64           `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment records how a sale is settled. Digital payments carry the gateway
// order id in Reference and move out of pending exactly once.
type Payment struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	SaleID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"sale_id"`
	Method        enum.PaymentMethod `gorm:"size:20;not null" json:"method"`
	Amount        decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reference     *string            `gorm:"size:100;uniqueIndex" json:"reference,omitempty"`
	TransactionID *string            `gorm:"size:100" json:"transaction_id,omitempty"`
	Status        enum.PaymentStatus `gorm:"not null;default:0;index" json:"status"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

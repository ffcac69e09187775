package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is a completed checkout. Rows are never updated after creation except for
// the paid amount reconciled from a gateway confirmation.
type Sale struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNo   string             `gorm:"size:32;unique;not null" json:"invoice_no"`
	CashierID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"cashier_id"`
	CustomerID  *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	PaymentType enum.PaymentMethod `gorm:"size:20;not null" json:"payment_type"`
	Subtotal    decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"subtotal"`
	Tax         decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"tax"`
	Total       decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"total"`
	Paid        decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"paid"`
	Change      decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"change"`
	CreatedAt   time.Time          `gorm:"index" json:"created_at"`

	Cashier  *User      `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments []Payment  `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// PrimaryPayment returns the first payment recorded for the sale, if any.
func (s *Sale) PrimaryPayment() *Payment {
	if len(s.Payments) == 0 {
		return nil
	}
	return &s.Payments[0]
}

// SaleItem snapshots the product name, price and tax rate at sale time
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"tax_rate"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`
	Tax         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"tax"`
	Total       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total"`
}

// BeforeCreate generates a UUID before creating a new sale item
func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleItem model
func (SaleItem) TableName() string {
	return "sale_items"
}

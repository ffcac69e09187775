package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	// Create inserts the sale together with its items and payments.
	// Returns ErrDuplicate if the invoice number is taken.
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID loads the sale with items, payments, cashier and customer.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	InvoiceExists(ctx context.Context, invoiceNo string) (bool, error)
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
	// ListByCashierBetween returns the cashier's sales with from <= created_at <= to,
	// oldest first, with payments loaded.
	ListByCashierBetween(ctx context.Context, cashierID uuid.UUID, from, to time.Time) ([]entity.Sale, error)
	UpdatePaid(ctx context.Context, id uuid.UUID, paid decimal.Decimal) error
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination  *pagination.PaginationParams
	CashierID   *uuid.UUID
	PaymentType string
	From        *time.Time
	To          *time.Time
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	GetBySaleID(ctx context.Context, saleID uuid.UUID) (*entity.Payment, error)
	// GetByReferenceForUpdate loads the payment for a gateway order id and, inside a
	// transaction, locks it until commit.
	GetByReferenceForUpdate(ctx context.Context, reference string) (*entity.Payment, error)
	// Update persists method, status, amount, transaction id and paid time.
	Update(ctx context.Context, payment *entity.Payment) error
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/pkg/pagination"
)

// PurchaseOrderRepository defines the interface for purchase order data operations
type PurchaseOrderRepository interface {
	// Create inserts the order with its items. Returns ErrDuplicate if the
	// invoice number is taken.
	Create(ctx context.Context, order *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.PurchaseOrder, error)
	InvoiceExists(ctx context.Context, invoiceNo string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *pagination.PaginationParams, supplierID *uuid.UUID) ([]entity.PurchaseOrder, int64, error)
}

package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseItemRequest is one received product line
type PurchaseItemRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseRequest represents a purchase order creation request
type CreatePurchaseRequest struct {
	SupplierID *uuid.UUID            `json:"supplier_id"`
	Notes      *string               `json:"notes"`
	Items      []PurchaseItemRequest `json:"items"`
}

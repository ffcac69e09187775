package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one cart line
type SaleItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CreateSaleRequest represents a checkout request
type CreateSaleRequest struct {
	CustomerID  *uuid.UUID        `json:"customer_id"`
	PaymentType string            `json:"payment_type"`
	Paid        decimal.Decimal   `json:"paid"`
	Items       []SaleItemRequest `json:"items"`
}

// SaleFilterRequest represents sale listing filters
type SaleFilterRequest struct {
	PaymentType string     `form:"payment_type"`
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
	Page        int        `form:"page"`
	PerPage     int        `form:"per_page"`
}

// ChargeRequest selects the issuing bank for transfer payments
type ChargeRequest struct {
	Bank string `json:"bank"`
}

package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	CategoryID *uuid.UUID       `json:"category_id"`
	SKU        string           `json:"sku" binding:"omitempty,max=100"`
	Barcode    *string          `json:"barcode" binding:"omitempty,max=100"`
	Name       string           `json:"name" binding:"required,max=255"`
	Price      decimal.Decimal  `json:"price"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	Stock      int              `json:"stock"`
}

// UpdateProductRequest represents a product update request
type UpdateProductRequest struct {
	CategoryID *uuid.UUID       `json:"category_id"`
	SKU        *string          `json:"sku" binding:"omitempty,max=100"`
	Barcode    *string          `json:"barcode" binding:"omitempty,max=100"`
	Name       *string          `json:"name" binding:"omitempty,max=255"`
	Price      *decimal.Decimal `json:"price"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	Active     *bool            `json:"active"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}

// RestockRequest adds received units outside a purchase order
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CreateCategoryRequest represents a category creation request
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/apperror"
)

// InventoryLedger owns every stock change. Decrements are conditional so stock
// never goes negative; inside a transaction the decrement holds the product row
// until commit, which serializes concurrent sales of the same product.
type InventoryLedger struct {
	productRepo repository.ProductRepository
}

func NewInventoryLedger(productRepo repository.ProductRepository) *InventoryLedger {
	return &InventoryLedger{productRepo: productRepo}
}

// ReserveAndDecrement removes qty units of a product or fails with InsufficientStock
// without changing anything.
func (l *InventoryLedger) ReserveAndDecrement(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fieldError("quantity", "must be greater than 0")
	}

	ok, err := l.productRepo.DecrementStock(ctx, productID, qty)
	if err != nil {
		return apperror.Persistence(err)
	}
	if ok {
		return nil
	}

	product, err := l.productRepo.GetByID(ctx, productID)
	if err != nil {
		return apperror.Persistence(err)
	}
	if product == nil {
		return apperror.NewNotFoundError(fmt.Sprintf("Product %s", productID))
	}
	return apperror.NewInsufficientStockError(product.Name, product.Stock, qty)
}

// Increment adds qty units, as on purchase receipt or restock.
func (l *InventoryLedger) Increment(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fieldError("quantity", "must be greater than 0")
	}

	ok, err := l.productRepo.IncrementStock(ctx, productID, qty)
	if err != nil {
		return apperror.Persistence(err)
	}
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("Product %s", productID))
	}
	return nil
}

// Deactivate removes a product from the sale catalog. Stock is left untouched.
func (l *InventoryLedger) Deactivate(ctx context.Context, productID uuid.UUID) error {
	product, err := l.productRepo.GetByID(ctx, productID)
	if err != nil {
		return apperror.Persistence(err)
	}
	if product == nil {
		return apperror.NewNotFoundError("Product")
	}
	if err := l.productRepo.SetActive(ctx, productID, false); err != nil {
		return apperror.Persistence(err)
	}
	return nil
}

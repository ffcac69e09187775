package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category, err := f.products.CreateCategory(ctx, f.admin, "Coffee")
	require.NoError(t, err)

	barcode := " 8991234567890 "
	product, err := f.products.CreateProduct(ctx, f.admin, &CreateProductInput{
		CategoryID: &category.ID,
		Barcode:    &barcode,
		Name:       "Es Kopi Susu",
		Price:      dec("18000"),
		Stock:      20,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^SKU-[0-9A-F]{8}$`, product.SKU)
	assert.True(t, DefaultTaxRate.Equal(product.TaxRate))
	assert.Equal(t, "8991234567890", *product.Barcode)
	require.NotNil(t, product.Category)
	assert.Equal(t, "Coffee", product.Category.Name)

	found, err := f.products.LookupProduct(ctx, f.cashier, "8991234567890")
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)

	found, err = f.products.LookupProduct(ctx, f.cashier, product.SKU)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)

	_, err = f.products.CreateProduct(ctx, f.admin, &CreateProductInput{SKU: product.SKU, Name: "Dup", Price: dec("1")})
	assert.True(t, apperror.IsKind(err, apperror.KindDuplicateEntry))
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tooHigh := dec("1.5")
	missing := uuid.New()

	tests := []struct {
		name  string
		actor *Actor
		input *CreateProductInput
		kind  apperror.Kind
	}{
		{"cashier", f.cashier, &CreateProductInput{Name: "X", Price: dec("1")}, apperror.KindUnauthorized},
		{"no name", f.admin, &CreateProductInput{Price: dec("1")}, apperror.KindValidation},
		{"negative price", f.admin, &CreateProductInput{Name: "X", Price: dec("-1")}, apperror.KindValidation},
		{"tax rate above one", f.admin, &CreateProductInput{Name: "X", Price: dec("1"), TaxRate: &tooHigh}, apperror.KindValidation},
		{"negative stock", f.admin, &CreateProductInput{Name: "X", Price: dec("1"), Stock: -1}, apperror.KindValidation},
		{"unknown category", f.admin, &CreateProductInput{Name: "X", Price: dec("1"), CategoryID: &missing}, apperror.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.products.CreateProduct(ctx, tt.actor, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestInactiveProductsHiddenFromCashiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)
	f.addProduct(t, "Mocha", "12000", 10)

	require.NoError(t, f.products.DeactivateProduct(ctx, f.admin, latte.ID))
	assert.Equal(t, 10, f.stockOf(t, latte.ID))

	list, err := f.products.ListProducts(ctx, f.cashier, nil)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	list, err = f.products.ListProducts(ctx, f.admin, &repository.ProductFilterParams{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	_, err = f.products.LookupProduct(ctx, f.cashier, latte.SKU)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.products.LookupProduct(ctx, f.admin, latte.SKU)
	assert.NoError(t, err)

	active := true
	_, err = f.products.UpdateProduct(ctx, f.admin, latte.ID, &UpdateProductInput{Active: &active})
	require.NoError(t, err)
	_, err = f.products.LookupProduct(ctx, f.cashier, latte.SKU)
	assert.NoError(t, err)
}

func TestRestockProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 1)

	product, err := f.products.RestockProduct(ctx, f.admin, latte.ID, 24)
	require.NoError(t, err)
	assert.Equal(t, 25, product.Stock)

	_, err = f.products.RestockProduct(ctx, f.admin, latte.ID, 0)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.products.RestockProduct(ctx, f.admin, uuid.New(), 1)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.products.RestockProduct(ctx, f.cashier, latte.ID, 1)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestInventoryLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 3)

	require.NoError(t, f.ledger.ReserveAndDecrement(ctx, latte.ID, 3))
	assert.Equal(t, 0, f.stockOf(t, latte.ID))

	err := f.ledger.ReserveAndDecrement(ctx, latte.ID, 1)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
	assert.Contains(t, err.Error(), "available 0, requested 1")
	assert.Equal(t, 0, f.stockOf(t, latte.ID))

	err = f.ledger.ReserveAndDecrement(ctx, latte.ID, -2)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	err = f.ledger.ReserveAndDecrement(ctx, uuid.New(), 1)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	require.NoError(t, f.ledger.Increment(ctx, latte.ID, 4))
	assert.Equal(t, 4, f.stockOf(t, latte.ID))
}

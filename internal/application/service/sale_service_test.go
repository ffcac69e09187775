package service

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashSale(productID uuid.UUID, qty int, paid string) *CreateSaleInput {
	return &CreateSaleInput{
		PaymentType: enum.PaymentMethodCash,
		Paid:        dec(paid),
		Items:       []SaleItemInput{{ProductID: productID, Quantity: qty}},
	}
}

func TestCreateCashSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)

	sale, err := f.sales.CreateSale(ctx, f.cashier, cashSale(latte.ID, 2, "25000"))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^INV-\d{8}-\d{4}$`), sale.InvoiceNo)
	assert.True(t, dec("20000").Equal(sale.Subtotal))
	assert.True(t, dec("2200").Equal(sale.Tax))
	assert.True(t, dec("22200").Equal(sale.Total))
	assert.True(t, dec("25000").Equal(sale.Paid))
	assert.True(t, dec("2800").Equal(sale.Change))
	assert.Equal(t, f.cashier.UserID, sale.CashierID)

	require.Len(t, sale.Items, 1)
	assert.Equal(t, "Latte", sale.Items[0].ProductName)
	assert.True(t, dec("10000").Equal(sale.Items[0].Price))

	p := sale.PrimaryPayment()
	require.NotNil(t, p)
	assert.Equal(t, enum.PaymentStatusCompleted, p.Status)
	assert.NotNil(t, p.PaidAt)
	assert.Nil(t, p.Reference)

	assert.Equal(t, 8, f.stockOf(t, latte.ID))
}

func TestCreateCashSaleInsufficientPayment(t *testing.T) {
	f := newFixture(t)
	latte := f.addProduct(t, "Latte", "10000", 10)

	_, err := f.sales.CreateSale(context.Background(), f.cashier, cashSale(latte.ID, 2, "20000"))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientPayment))
	assert.Equal(t, 10, f.stockOf(t, latte.ID))
}

func TestCreateSaleInsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	beans := f.addProduct(t, "House Blend 250g", "85000", 3)

	_, err := f.sales.CreateSale(ctx, f.cashier, cashSale(beans.ID, 5, "1000000"))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
	assert.Contains(t, err.Error(), "House Blend 250g")
	assert.Equal(t, 3, f.stockOf(t, beans.ID))

	list, err := f.sales.ListSales(ctx, f.admin, nil)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestCreateSaleIsAtomicAcrossItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)
	cake := f.addProduct(t, "Cheesecake", "30000", 1)

	_, err := f.sales.CreateSale(ctx, f.cashier, &CreateSaleInput{
		PaymentType: enum.PaymentMethodCash,
		Paid:        dec("500000"),
		Items: []SaleItemInput{
			{ProductID: latte.ID, Quantity: 2},
			{ProductID: cake.ID, Quantity: 2},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
	assert.Equal(t, 10, f.stockOf(t, latte.ID))
	assert.Equal(t, 1, f.stockOf(t, cake.ID))
}

func TestCreateSaleAggregatesRepeatedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 3)

	_, err := f.sales.CreateSale(ctx, f.cashier, &CreateSaleInput{
		PaymentType: enum.PaymentMethodCash,
		Paid:        dec("100000"),
		Items: []SaleItemInput{
			{ProductID: latte.ID, Quantity: 2},
			{ProductID: latte.ID, Quantity: 2},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
	assert.Equal(t, 3, f.stockOf(t, latte.ID))

	sale, err := f.sales.CreateSale(ctx, f.cashier, &CreateSaleInput{
		PaymentType: enum.PaymentMethodCash,
		Paid:        dec("100000"),
		Items: []SaleItemInput{
			{ProductID: latte.ID, Quantity: 1},
			{ProductID: latte.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Len(t, sale.Items, 2)
	assert.Equal(t, 0, f.stockOf(t, latte.ID))
}

func TestCreateSaleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)

	tests := []struct {
		name  string
		input *CreateSaleInput
		kind  apperror.Kind
	}{
		{"empty cart", &CreateSaleInput{PaymentType: enum.PaymentMethodCash, Paid: dec("1")}, apperror.KindValidation},
		{"zero quantity", cashSale(latte.ID, 0, "100000"), apperror.KindValidation},
		{"unknown method", &CreateSaleInput{PaymentType: "card", Items: []SaleItemInput{{ProductID: latte.ID, Quantity: 1}}}, apperror.KindValidation},
		{"negative paid", cashSale(latte.ID, 1, "-1"), apperror.KindValidation},
		{"unknown product", cashSale(uuid.New(), 1, "100000"), apperror.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sales.CreateSale(ctx, f.cashier, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, tt.kind), "got %v", err)
		})
	}

	_, err := f.sales.CreateSale(ctx, nil, cashSale(latte.ID, 1, "100000"))
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, 10, f.stockOf(t, latte.ID))
}

func TestCreateSaleRejectsInactiveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)
	require.NoError(t, f.products.DeactivateProduct(ctx, f.admin, latte.ID))

	_, err := f.sales.CreateSale(ctx, f.cashier, cashSale(latte.ID, 1, "100000"))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, 10, f.stockOf(t, latte.ID))
}

func TestCreateSaleUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	latte := f.addProduct(t, "Latte", "10000", 10)
	input := cashSale(latte.ID, 1, "100000")
	missing := uuid.New()
	input.CustomerID = &missing

	_, err := f.sales.CreateSale(context.Background(), f.cashier, input)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCreateDigitalSaleIsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)

	sale, err := f.sales.CreateSale(ctx, f.cashier, &CreateSaleInput{
		PaymentType: enum.PaymentMethodQRIS,
		Items:       []SaleItemInput{{ProductID: latte.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.True(t, dec("22200").Equal(sale.Paid))
	assert.True(t, sale.Change.IsZero())

	p := sale.PrimaryPayment()
	require.NotNil(t, p)
	assert.Equal(t, enum.PaymentStatusPending, p.Status)
	assert.Nil(t, p.PaidAt)
	require.NotNil(t, p.Reference)
	assert.Equal(t, GatewayOrderID(sale.InvoiceNo, sale.CreatedAt), *p.Reference)

	// Stock is committed at sale time, not at confirmation.
	assert.Equal(t, 8, f.stockOf(t, latte.ID))
}

func TestCreateDigitalSaleKeepsTenderedAmount(t *testing.T) {
	f := newFixture(t)
	latte := f.addProduct(t, "Latte", "10000", 10)

	sale, err := f.sales.CreateSale(context.Background(), f.cashier, &CreateSaleInput{
		PaymentType: enum.PaymentMethodTransfer,
		Paid:        dec("25000"),
		Items:       []SaleItemInput{{ProductID: latte.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.True(t, dec("25000").Equal(sale.Paid), sale.Paid.String())
	assert.True(t, sale.Change.IsZero())
	p := sale.PrimaryPayment()
	require.NotNil(t, p)
	assert.True(t, dec("22200").Equal(p.Amount), p.Amount.String())
	assert.Equal(t, enum.PaymentStatusPending, p.Status)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		invoices  = map[string]bool{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, err := f.sales.CreateSale(ctx, f.cashier, cashSale(latte.ID, 1, "20000"))
			if err != nil {
				assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
				return
			}
			mu.Lock()
			defer mu.Unlock()
			succeeded++
			invoices[sale.InvoiceNo] = true
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Len(t, invoices, 5)
	assert.Equal(t, 0, f.stockOf(t, latte.ID))
}

func TestGetSaleVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)
	other := f.addUser(t, "kasir2@kopi.test", enum.RoleCashier)

	sale, err := f.sales.CreateSale(ctx, f.cashier, cashSale(latte.ID, 1, "20000"))
	require.NoError(t, err)

	got, err := f.sales.GetSale(ctx, f.cashier, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.InvoiceNo, got.InvoiceNo)

	_, err = f.sales.GetSale(ctx, f.admin, sale.ID)
	require.NoError(t, err)

	_, err = f.sales.GetSale(ctx, other, sale.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	mine, err := f.sales.ListSales(ctx, other, nil)
	require.NoError(t, err)
	assert.Empty(t, mine.Items)

	all, err := f.sales.ListSales(ctx, f.admin, nil)
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
	assert.EqualValues(t, 1, all.Pagination.Total)

	own, err := f.sales.ListMySales(ctx, f.admin, nil)
	require.NoError(t, err)
	assert.Empty(t, own.Items)
}

func TestCreateSaleSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)

	sale, err := f.sales.CreateSale(ctx, f.cashier, cashSale(latte.ID, 1, "20000"))
	require.NoError(t, err)

	price := dec("15000")
	_, err = f.products.UpdateProduct(ctx, f.admin, latte.ID, &UpdateProductInput{Price: &price})
	require.NoError(t, err)

	got, err := f.sales.GetSale(ctx, f.admin, sale.ID)
	require.NoError(t, err)
	assert.True(t, dec("10000").Equal(got.Items[0].Price))
	assert.True(t, dec("11100").Equal(got.Total))
}

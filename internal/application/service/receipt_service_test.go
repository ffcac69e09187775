package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePrinter struct {
	jobs [][]byte
	err  error
}

func (p *capturePrinter) Print(_ context.Context, job []byte) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *capturePrinter) Kind() string               { return "network" }
func (p *capturePrinter) Ready(context.Context) bool { return p.err == nil }

func TestPrintSaleReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)
	sale, err := f.sales.CreateSale(ctx, f.cashier, cashSale(latte.ID, 2, "25000"))
	require.NoError(t, err)

	dev := &capturePrinter{}
	receipts := NewReceiptService(dev, f.store.Sales(), entity.ReceiptHeader{StoreName: "Kopi Senja", Phone: "021-555-0101"},
		printer.Width58mm, jakarta(t), f.log)

	receipt, err := receipts.PrintSaleReceipt(ctx, f.cashier, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.InvoiceNo, receipt.InvoiceNo)
	assert.Equal(t, "Rp 22.200", receipt.Total)
	assert.Equal(t, "Rp 2.800", receipt.Change)
	assert.Equal(t, "completed", receipt.PaymentStatus)
	assert.Equal(t, "kasir@kopi.test", receipt.Cashier)
	require.Len(t, receipt.Lines, 1)
	assert.Equal(t, entity.ReceiptLine{Name: "Latte", Quantity: 2, Price: "Rp 10.000", Total: "Rp 20.000"}, receipt.Lines[0])
	assert.Equal(t, sale.CreatedAt.In(jakarta(t)).Format("02/01/2006 15:04"), receipt.Date)

	require.Len(t, dev.jobs, 1)
	assert.True(t, bytes.Contains(dev.jobs[0], []byte("Kopi Senja")))
	assert.True(t, bytes.Contains(dev.jobs[0], []byte(sale.InvoiceNo)))

	status := receipts.Status(ctx)
	assert.True(t, status.Configured)
	assert.True(t, status.Ready)
}

func TestPrintSaleReceiptPrinterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := f.addProduct(t, "Latte", "10000", 10)
	sale, err := f.sales.CreateSale(ctx, f.cashier, &CreateSaleInput{
		PaymentType: enum.PaymentMethodQRIS,
		Items:       []SaleItemInput{{ProductID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	dev := &capturePrinter{err: errors.New("connection refused")}
	receipts := NewReceiptService(dev, f.store.Sales(), entity.ReceiptHeader{StoreName: "Kopi Senja"}, 0, time.UTC, f.log)

	receipt, err := receipts.PrintSaleReceipt(ctx, f.cashier, sale.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrintFailed)
	require.NotNil(t, receipt)
	assert.Equal(t, "pending", receipt.PaymentStatus)

	other := f.addUser(t, "kasir2@kopi.test", enum.RoleCashier)
	_, err = receipts.PrintSaleReceipt(ctx, other, sale.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestTestPrintWithoutPrinter(t *testing.T) {
	f := newFixture(t)
	receipts := NewReceiptService(printer.Discard{}, f.store.Sales(), entity.ReceiptHeader{StoreName: "Kopi Senja"}, 0, nil, f.log)

	receipt, err := receipts.TestPrint(context.Background(), f.admin)
	assert.ErrorIs(t, err, ErrPrintFailed)
	assert.ErrorIs(t, err, printer.ErrNoPrinter)
	require.NotNil(t, receipt)

	assert.False(t, receipts.Status(context.Background()).Configured)

	_, err = receipts.TestPrint(context.Background(), f.cashier)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

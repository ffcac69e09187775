package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/printer"
	"github.com/sangkips/kopi-pos/pkg/utils"
	"github.com/sirupsen/logrus"
)

const receiptDateLayout = "02/01/2006 15:04"

// ErrPrintFailed wraps transport failures. The receipt is still returned with it.
var ErrPrintFailed = errors.New("receipt was not printed")

// ReceiptService composes receipts from sales and sends them to the thermal printer.
type ReceiptService struct {
	printer    printer.Printer
	saleRepo   repository.SaleRepository
	header     entity.ReceiptHeader
	paperWidth int
	loc        *time.Location
	log        *logrus.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	p printer.Printer,
	saleRepo repository.SaleRepository,
	header entity.ReceiptHeader,
	paperWidth int,
	loc *time.Location,
	log *logrus.Logger,
) *ReceiptService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReceiptService{
		printer:    p,
		saleRepo:   saleRepo,
		header:     header,
		paperWidth: paperWidth,
		loc:        loc,
		log:        log,
	}
}

// PrinterStatus describes the configured printer
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Ready      bool   `json:"ready"`
	Type       string `json:"type"`
}

func (s *ReceiptService) Status(ctx context.Context) *PrinterStatus {
	kind := s.printer.Kind()
	return &PrinterStatus{
		Configured: kind != "none",
		Ready:      s.printer.Ready(ctx),
		Type:       kind,
	}
}

// BuildReceipt renders a sale into display strings.
func (s *ReceiptService) BuildReceipt(sale *entity.Sale) *entity.Receipt {
	r := &entity.Receipt{
		Header:      s.header,
		InvoiceNo:   sale.InvoiceNo,
		Date:        sale.CreatedAt.In(s.loc).Format(receiptDateLayout),
		PaymentType: string(sale.PaymentType),
		Lines:       make([]entity.ReceiptLine, 0, len(sale.Items)),
		Subtotal:    utils.FormatRupiah(sale.Subtotal),
		Tax:         utils.FormatRupiah(sale.Tax),
		Total:       utils.FormatRupiah(sale.Total),
		Paid:        utils.FormatRupiah(sale.Paid),
		Change:      utils.FormatRupiah(sale.Change),
	}
	if sale.Cashier != nil {
		r.Cashier = sale.Cashier.Name
	}
	if sale.Customer != nil {
		r.Customer = sale.Customer.Name
	}
	if p := sale.PrimaryPayment(); p != nil {
		r.PaymentStatus = p.Status.String()
	}
	for _, item := range sale.Items {
		r.Lines = append(r.Lines, entity.ReceiptLine{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    utils.FormatRupiah(item.Price),
			Total:    utils.FormatRupiah(item.Subtotal),
		})
	}
	return r
}

// RenderReceipt lays a receipt out as an ESC/POS job.
func RenderReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	doc.Align(printer.AlignCenter).Bold(true).Size(printer.SizeDouble).
		Line(r.Header.StoreName).
		Size(printer.SizeNormal).Bold(false)
	if r.Header.Address != "" {
		doc.Line(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Line(r.Header.Phone)
	}

	doc.Align(printer.AlignLeft).Rule('=').
		Pair("No", r.InvoiceNo).
		Pair("Tanggal", r.Date)
	if r.Cashier != "" {
		doc.Pair("Kasir", r.Cashier)
	}
	if r.Customer != "" {
		doc.Pair("Pelanggan", r.Customer)
	}
	doc.Rule('-')

	for _, line := range r.Lines {
		doc.Item(line.Name, line.Quantity, line.Price, line.Total)
	}

	doc.Rule('-').
		Pair("Subtotal", r.Subtotal).
		Pair("PPN", r.Tax).
		Bold(true).Pair("TOTAL", r.Total).Bold(false).
		Pair("Bayar ("+r.PaymentType+")", r.Paid).
		Pair("Kembali", r.Change)
	if r.PaymentStatus != "" && r.PaymentStatus != "completed" {
		doc.Pair("Status", r.PaymentStatus)
	}

	doc.Rule('=').
		Align(printer.AlignCenter).
		Line("Terima kasih").
		Cut(true)

	return doc.Bytes()
}

// PrintSaleReceipt prints the receipt for a sale. When the printer fails the
// composed receipt is returned together with an error wrapping ErrPrintFailed.
func (s *ReceiptService) PrintSaleReceipt(ctx context.Context, actor *Actor, saleID uuid.UUID) (*entity.Receipt, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if sale == nil || !actor.CanAccess(sale.CashierID) {
		return nil, apperror.NewNotFoundError("Sale")
	}

	receipt := s.BuildReceipt(sale)
	if err := s.printer.Print(ctx, RenderReceipt(receipt, s.paperWidth)); err != nil {
		s.log.WithFields(logrus.Fields{
			"module":     "receipt",
			"invoice_no": sale.InvoiceNo,
			"printer":    s.printer.Kind(),
		}).WithError(err).Warn("receipt print failed")
		return receipt, fmt.Errorf("%w: %w", ErrPrintFailed, err)
	}
	return receipt, nil
}

// TestPrint prints a sample page.
func (s *ReceiptService) TestPrint(ctx context.Context, actor *Actor) (*entity.Receipt, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	receipt := &entity.Receipt{
		Header:        s.header,
		InvoiceNo:     "TEST-0000",
		Date:          time.Now().In(s.loc).Format(receiptDateLayout),
		Cashier:       "System",
		PaymentType:   "cash",
		PaymentStatus: "completed",
		Lines: []entity.ReceiptLine{
			{Name: "Kopi Susu", Quantity: 1, Price: "Rp 18.000", Total: "Rp 18.000"},
			{Name: "Croissant", Quantity: 2, Price: "Rp 22.000", Total: "Rp 44.000"},
		},
		Subtotal: "Rp 62.000",
		Tax:      "Rp 6.820",
		Total:    "Rp 68.820",
		Paid:     "Rp 70.000",
		Change:   "Rp 1.180",
	}
	if err := s.printer.Print(ctx, RenderReceipt(receipt, s.paperWidth)); err != nil {
		return receipt, fmt.Errorf("%w: %w", ErrPrintFailed, err)
	}
	return receipt, nil
}

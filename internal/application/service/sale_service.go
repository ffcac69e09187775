package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/logger"
	"github.com/sangkips/kopi-pos/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SaleService handles checkout and sale queries
type SaleService struct {
	tx           repository.Transactor
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	ledger       *InventoryLedger
	invoices     *InvoiceGenerator
	log          *logrus.Logger
	now          func() time.Time
}

// NewSaleService creates a new sale service
func NewSaleService(
	tx repository.Transactor,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	ledger *InventoryLedger,
	invoices *InvoiceGenerator,
	log *logrus.Logger,
) *SaleService {
	return &SaleService{
		tx:           tx,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		ledger:       ledger,
		invoices:     invoices,
		log:          log,
		now:          time.Now,
	}
}

// SaleItemInput represents an item in a sale
type SaleItemInput struct {
	ProductID uuid.UUID `validate:"required"`
	Quantity  int       `validate:"gt=0"`
}

// CreateSaleInput represents the create sale input
type CreateSaleInput struct {
	CustomerID  *uuid.UUID
	PaymentType enum.PaymentMethod `validate:"required,oneof=cash qris transfer"`
	Paid        decimal.Decimal
	Items       []SaleItemInput `validate:"required,min=1,dive"`
}

// CreateSale prices the cart, records the sale with its payment and decrements
// stock as one unit of work. Any failure leaves no trace of the attempt.
func (s *SaleService) CreateSale(ctx context.Context, actor *Actor, input *CreateSaleInput) (*entity.Sale, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, apperror.NewBadRequestError("Sale input is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Paid.IsNegative() {
		return nil, fieldError("Paid", "must not be negative")
	}

	// A unique violation on insert means another sale took the invoice number or
	// gateway reference between generation and commit; start over with a new one.
	attempts := s.invoices.MaxAttempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		var saleID uuid.UUID
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			sale, err := s.createSale(ctx, actor, input)
			if err != nil {
				return err
			}
			saleID = sale.ID
			return nil
		})
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.WithFields(logrus.Fields{
				"module":  "sale",
				"attempt": attempt,
			}).Warn("invoice collision on insert, retrying")
			continue
		}
		if err != nil {
			if !apperror.IsAppError(err) {
				logger.LogError(s.log, "sale", "CreateSale", "transaction", input, err)
			}
			return nil, apperror.Persistence(err)
		}

		sale, err := s.saleRepo.GetByID(ctx, saleID)
		if err != nil {
			return nil, apperror.Persistence(err)
		}
		s.log.WithFields(logrus.Fields{
			"module":     "sale",
			"invoice_no": sale.InvoiceNo,
			"cashier_id": actor.UserID,
			"total":      sale.Total.String(),
			"method":     sale.PaymentType,
		}).Info("sale created")
		return sale, nil
	}

	return nil, apperror.NewInvoiceExhaustedError(s.invoices.Prefix(), attempts)
}

func (s *SaleService) createSale(ctx context.Context, actor *Actor, input *CreateSaleInput) (*entity.Sale, error) {
	// Validate customer if provided
	if input.CustomerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *input.CustomerID)
		if err != nil {
			return nil, apperror.Persistence(err)
		}
		if customer == nil {
			return nil, apperror.NewNotFoundError("Customer")
		}
	}

	// Batch fetch all products in one query
	productIDs := make([]uuid.UUID, 0, len(input.Items))
	requested := make(map[uuid.UUID]int, len(input.Items))
	for _, item := range input.Items {
		if _, seen := requested[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	lines := make([]PriceLine, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := productMap[item.ProductID]
		if !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", item.ProductID))
		}
		if !product.Active {
			return nil, fieldError("Items", fmt.Sprintf("%s is not available for sale", product.Name))
		}
		lines = append(lines, PriceLine{Price: product.Price, Quantity: item.Quantity, TaxRate: product.TaxRate})
	}

	// Report the first short product in cart order; the decrement below re-checks atomically.
	for _, id := range productIDs {
		product := productMap[id]
		if product.Stock < requested[id] {
			return nil, apperror.NewInsufficientStockError(product.Name, product.Stock, requested[id])
		}
	}

	totals, err := CalculateTotals(lines)
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	now := s.now()
	sale := &entity.Sale{
		ID:          uuid.New(),
		CashierID:   actor.UserID,
		CustomerID:  input.CustomerID,
		PaymentType: input.PaymentType,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Total:       totals.Total,
		Change:      decimal.Zero,
		CreatedAt:   now,
	}
	payment := entity.Payment{
		Method: input.PaymentType,
	}

	if input.PaymentType == enum.PaymentMethodCash {
		if input.Paid.LessThan(totals.Total) {
			return nil, apperror.NewInsufficientPaymentError(totals.Total.StringFixed(MoneyScale), input.Paid.StringFixed(MoneyScale))
		}
		sale.Paid = input.Paid
		sale.Change = input.Paid.Sub(totals.Total)
		payment.Amount = input.Paid
		payment.Status = enum.PaymentStatusCompleted
		payment.PaidAt = &now
	} else {
		// Provisional until the gateway confirms the gross amount.
		sale.Paid = totals.Total
		if input.Paid.IsPositive() {
			sale.Paid = input.Paid
		}
		payment.Amount = totals.Total
		payment.Status = enum.PaymentStatusPending
	}

	invoiceNo, err := s.invoices.Next(ctx, s.saleRepo.InvoiceExists)
	if err != nil {
		return nil, err
	}
	sale.InvoiceNo = invoiceNo
	if input.PaymentType.IsDigital() {
		ref := GatewayOrderID(invoiceNo, now)
		payment.Reference = &ref
	}
	sale.Payments = []entity.Payment{payment}

	sale.Items = make([]entity.SaleItem, 0, len(input.Items))
	for i, item := range input.Items {
		product := productMap[item.ProductID]
		amounts := totals.Lines[i]
		sale.Items = append(sale.Items, entity.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       product.Price,
			TaxRate:     product.TaxRate,
			Subtotal:    amounts.Subtotal,
			Tax:         amounts.Tax,
			Total:       amounts.Total,
		})
	}

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		return nil, apperror.Persistence(err)
	}

	// Decrement in id order so concurrent sales lock rows in the same sequence.
	slices.SortFunc(productIDs, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	for _, id := range productIDs {
		if err := s.ledger.ReserveAndDecrement(ctx, id, requested[id]); err != nil {
			return nil, err
		}
	}

	return sale, nil
}

// GatewayOrderID builds the order id sent to the payment gateway for a sale.
func GatewayOrderID(invoiceNo string, at time.Time) string {
	return fmt.Sprintf("%s-%d", invoiceNo, at.Unix())
}

// GetSale returns a sale visible to the actor: admins see all, cashiers their own.
func (s *SaleService) GetSale(ctx context.Context, actor *Actor, id uuid.UUID) (*entity.Sale, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if sale == nil || !actor.CanAccess(sale.CashierID) {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

// SaleListInput filters a sale listing.
type SaleListInput struct {
	Pagination  *pagination.PaginationParams
	PaymentType string
	From        *time.Time
	To          *time.Time
}

// ListSales returns every sale for admins and the caller's own sales otherwise.
func (s *SaleService) ListSales(ctx context.Context, actor *Actor, input *SaleListInput) (*pagination.PaginatedResult[entity.Sale], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var cashierID *uuid.UUID
	if !actor.IsAdmin() {
		cashierID = &actor.UserID
	}
	return s.list(ctx, cashierID, input)
}

// ListMySales returns the caller's sales regardless of role.
func (s *SaleService) ListMySales(ctx context.Context, actor *Actor, input *SaleListInput) (*pagination.PaginatedResult[entity.Sale], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, &actor.UserID, input)
}

func (s *SaleService) list(ctx context.Context, cashierID *uuid.UUID, input *SaleListInput) (*pagination.PaginatedResult[entity.Sale], error) {
	if input == nil {
		input = &SaleListInput{}
	}
	if input.Pagination == nil {
		input.Pagination = pagination.DefaultPagination()
	}
	input.Pagination.Validate()

	sales, total, err := s.saleRepo.List(ctx, &repository.SaleFilterParams{
		Pagination:  input.Pagination,
		CashierID:   cashierID,
		PaymentType: input.PaymentType,
		From:        input.From,
		To:          input.To,
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return pagination.NewPaginatedResult(sales, pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)), nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/logger"
	"github.com/sangkips/kopi-pos/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PurchaseService handles supplier purchase orders
type PurchaseService struct {
	tx           repository.Transactor
	purchaseRepo repository.PurchaseOrderRepository
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	ledger       *InventoryLedger
	invoices     *InvoiceGenerator
	log          *logrus.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	tx repository.Transactor,
	purchaseRepo repository.PurchaseOrderRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	ledger *InventoryLedger,
	invoices *InvoiceGenerator,
	log *logrus.Logger,
) *PurchaseService {
	return &PurchaseService{
		tx:           tx,
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		ledger:       ledger,
		invoices:     invoices,
		log:          log,
	}
}

// PurchaseItemInput represents an item in a purchase
type PurchaseItemInput struct {
	ProductID uuid.UUID `validate:"required"`
	Quantity  int       `validate:"gt=0"`
	UnitCost  decimal.Decimal
}

// CreatePurchaseInput represents the create purchase input
type CreatePurchaseInput struct {
	SupplierID *uuid.UUID
	Notes      *string
	Items      []PurchaseItemInput `validate:"required,min=1,dive"`
}

// CreatePurchaseOrder records received stock and increments inventory in the
// same unit of work.
func (s *PurchaseService) CreatePurchaseOrder(ctx context.Context, actor *Actor, input *CreatePurchaseInput) (*entity.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, apperror.NewBadRequestError("Purchase input is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	for i, item := range input.Items {
		if item.UnitCost.IsNegative() {
			return nil, fieldError(fmt.Sprintf("Items[%d].UnitCost", i), "must not be negative")
		}
	}

	attempts := s.invoices.MaxAttempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		var orderID uuid.UUID
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			order, err := s.createPurchaseOrder(ctx, actor, input)
			if err != nil {
				return err
			}
			orderID = order.ID
			return nil
		})
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			if !apperror.IsAppError(err) {
				logger.LogError(s.log, "purchase", "CreatePurchaseOrder", "transaction", input, err)
			}
			return nil, apperror.Persistence(err)
		}

		order, err := s.purchaseRepo.GetByID(ctx, orderID)
		if err != nil {
			return nil, apperror.Persistence(err)
		}
		s.log.WithFields(logrus.Fields{
			"module":     "purchase",
			"invoice_no": order.InvoiceNo,
			"total":      order.Total.String(),
		}).Info("purchase order created")
		return order, nil
	}

	return nil, apperror.NewInvoiceExhaustedError(s.invoices.Prefix(), attempts)
}

func (s *PurchaseService) createPurchaseOrder(ctx context.Context, actor *Actor, input *CreatePurchaseInput) (*entity.PurchaseOrder, error) {
	// Validate supplier if provided
	if input.SupplierID != nil {
		supplier, err := s.supplierRepo.GetByID(ctx, *input.SupplierID)
		if err != nil {
			return nil, apperror.Persistence(err)
		}
		if supplier == nil {
			return nil, apperror.NewNotFoundError("Supplier")
		}
	}

	productIDs := make([]uuid.UUID, len(input.Items))
	for i, item := range input.Items {
		productIDs[i] = item.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	known := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}

	order := &entity.PurchaseOrder{
		ID:         uuid.New(),
		SupplierID: input.SupplierID,
		CreatedBy:  actor.UserID,
		Notes:      input.Notes,
		Total:      decimal.Zero,
		Items:      make([]entity.PurchaseOrderItem, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		if !known[item.ProductID] {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", item.ProductID))
		}
		subtotal := item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(MoneyScale)
		order.Total = order.Total.Add(subtotal)
		order.Items = append(order.Items, entity.PurchaseOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
			Subtotal:  subtotal,
		})
	}

	invoiceNo, err := s.invoices.Next(ctx, s.purchaseRepo.InvoiceExists)
	if err != nil {
		return nil, err
	}
	order.InvoiceNo = invoiceNo

	if err := s.purchaseRepo.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		return nil, apperror.Persistence(err)
	}

	for _, item := range order.Items {
		if err := s.ledger.Increment(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// DeletePurchaseOrder removes an order and takes its stock back out. It fails
// with InsufficientStock when part of that stock has already been sold.
func (s *PurchaseService) DeletePurchaseOrder(ctx context.Context, actor *Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.purchaseRepo.GetByID(ctx, id)
		if err != nil {
			return apperror.Persistence(err)
		}
		if order == nil {
			return apperror.NewNotFoundError("Purchase order")
		}

		for _, item := range order.Items {
			if err := s.ledger.ReserveAndDecrement(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := s.purchaseRepo.Delete(ctx, id); err != nil {
			return apperror.Persistence(err)
		}
		return nil
	})
	if err != nil {
		return apperror.Persistence(err)
	}

	s.log.WithFields(logrus.Fields{"module": "purchase", "purchase_order_id": id}).Info("purchase order deleted")
	return nil
}

// GetPurchaseOrder retrieves a purchase order with its items
func (s *PurchaseService) GetPurchaseOrder(ctx context.Context, actor *Actor, id uuid.UUID) (*entity.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	order, err := s.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Purchase order")
	}
	return order, nil
}

// ListPurchaseOrders lists purchase orders, newest first
func (s *PurchaseService) ListPurchaseOrders(ctx context.Context, actor *Actor, params *pagination.PaginationParams, supplierID *uuid.UUID) (*pagination.PaginatedResult[entity.PurchaseOrder], error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	orders, total, err := s.purchaseRepo.List(ctx, params, supplierID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return pagination.NewPaginatedResult(orders, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

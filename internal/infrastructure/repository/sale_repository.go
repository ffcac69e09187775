package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	return translate(conn(ctx, r.db).Omit("Cashier", "Customer").Create(sale).Error)
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := conn(ctx, r.db).
		Preload("Items").
		Preload("Payments").
		Preload("Cashier").
		Preload("Customer").
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) InvoiceExists(ctx context.Context, invoiceNo string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Sale{}).
		Where("invoice_no = ?", invoiceNo).
		Count(&count).Error
	return count > 0, err
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := conn(ctx, r.db).Model(&entity.Sale{})

	if params.CashierID != nil {
		query = query.Where("cashier_id = ?", *params.CashierID)
	}
	if params.PaymentType != "" {
		query = query.Where("payment_type = ?", params.PaymentType)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Items").
		Preload("Payments").
		Preload("Cashier").
		Preload("Customer").
		Order("created_at DESC").
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepository) ListByCashierBetween(ctx context.Context, cashierID uuid.UUID, from, to time.Time) ([]entity.Sale, error) {
	var sales []entity.Sale
	err := conn(ctx, r.db).
		Where("cashier_id = ? AND created_at >= ? AND created_at <= ?", cashierID, from, to).
		Preload("Items").
		Preload("Payments").
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepository) UpdatePaid(ctx context.Context, id uuid.UUID, paid decimal.Decimal) error {
	return conn(ctx, r.db).Model(&entity.Sale{}).
		Where("id = ?", id).
		Update("paid", paid).Error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := conn(ctx, r.db).
		Order("created_at ASC").
		First(&payment, "sale_id = ?", saleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*entity.Payment, error) {
	var payment entity.Payment
	query := conn(ctx, r.db)
	if inTx(ctx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.First(&payment, "reference = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	return conn(ctx, r.db).Model(payment).
		Select("method", "status", "amount", "transaction_id", "paid_at").
		Updates(payment).Error
}

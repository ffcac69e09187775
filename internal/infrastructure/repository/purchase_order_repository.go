package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/pagination"
	"gorm.io/gorm"
)

type purchaseOrderRepository struct {
	db *gorm.DB
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *gorm.DB) domainRepo.PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) Create(ctx context.Context, order *entity.PurchaseOrder) error {
	return translate(conn(ctx, r.db).Omit("Supplier", "Items.Product").Create(order).Error)
}

func (r *purchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PurchaseOrder, error) {
	var order entity.PurchaseOrder
	err := conn(ctx, r.db).
		Preload("Items.Product").
		Preload("Supplier").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *purchaseOrderRepository) InvoiceExists(ctx context.Context, invoiceNo string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.PurchaseOrder{}).
		Where("invoice_no = ?", invoiceNo).
		Count(&count).Error
	return count > 0, err
}

func (r *purchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Where("purchase_order_id = ?", id).Delete(&entity.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&entity.PurchaseOrder{}, "id = ?", id).Error
}

func (r *purchaseOrderRepository) List(ctx context.Context, params *pagination.PaginationParams, supplierID *uuid.UUID) ([]entity.PurchaseOrder, int64, error) {
	var orders []entity.PurchaseOrder
	var total int64

	query := conn(ctx, r.db).Model(&entity.PurchaseOrder{})
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Preload("Items").
		Preload("Supplier").
		Order("created_at DESC").
		Find(&orders).Error

	return orders, total, err
}

package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

type shiftRepo struct{ s *Store }

func (r *shiftRepo) Create(ctx context.Context, shift *entity.Shift) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.st.shifts {
		if existing.UserID == shift.UserID && existing.IsOpen() {
			return domainRepo.ErrDuplicate
		}
	}
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	r.s.stamp(&shift.CreatedAt, &shift.UpdatedAt)

	stored := *shift
	stored.User = nil
	r.s.st.shifts[shift.ID] = stored
	return nil
}

func (r *shiftRepo) withUser(shift entity.Shift) entity.Shift {
	if u, ok := r.s.st.users[shift.UserID]; ok {
		shift.User = &u
	}
	return shift
}

func (r *shiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Shift, error) {
	defer r.s.lock(ctx)()

	shift, ok := r.s.st.shifts[id]
	if !ok {
		return nil, nil
	}
	shift = r.withUser(shift)
	return &shift, nil
}

func (r *shiftRepo) GetOpenByUser(ctx context.Context, userID uuid.UUID) (*entity.Shift, error) {
	defer r.s.lock(ctx)()

	for _, shift := range r.s.st.shifts {
		if shift.UserID == userID && shift.IsOpen() {
			return &shift, nil
		}
	}
	return nil, nil
}

func (r *shiftRepo) Close(ctx context.Context, id uuid.UUID, closeAt time.Time, closingCash decimal.Decimal, notes *string) (bool, error) {
	defer r.s.lock(ctx)()

	shift, ok := r.s.st.shifts[id]
	if !ok || !shift.IsOpen() {
		return false, nil
	}
	shift.CloseAt = &closeAt
	shift.ClosingCash = decimal.NullDecimal{Decimal: closingCash, Valid: true}
	if notes != nil {
		shift.Notes = notes
	}
	r.s.stamp(nil, &shift.UpdatedAt)
	r.s.st.shifts[id] = shift
	return true, nil
}

func (r *shiftRepo) List(ctx context.Context, params *domainRepo.ShiftFilterParams) ([]entity.Shift, int64, error) {
	defer r.s.lock(ctx)()

	var matched []entity.Shift
	for _, shift := range r.s.st.shifts {
		if params.UserID != nil && shift.UserID != *params.UserID {
			continue
		}
		if params.OpenOnly && !shift.IsOpen() {
			continue
		}
		matched = append(matched, r.withUser(shift))
	}
	slices.SortFunc(matched, func(a, b entity.Shift) int { return b.OpenAt.Compare(a.OpenAt) })
	return page(matched, params.Pagination), int64(len(matched)), nil
}

type purchaseOrderRepo struct{ s *Store }

func (r *purchaseOrderRepo) Create(ctx context.Context, order *entity.PurchaseOrder) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.st.purchaseOrders {
		if existing.InvoiceNo == order.InvoiceNo {
			return domainRepo.ErrDuplicate
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.s.stamp(&order.CreatedAt, nil)
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].PurchaseOrderID = order.ID
	}

	stored := *order
	stored.Supplier = nil
	stored.Items = slices.Clone(order.Items)
	for i := range stored.Items {
		stored.Items[i].Product = nil
	}
	r.s.st.purchaseOrders[order.ID] = stored
	return nil
}

func (r *purchaseOrderRepo) assemble(order entity.PurchaseOrder) entity.PurchaseOrder {
	order.Items = slices.Clone(order.Items)
	for i := range order.Items {
		if p, ok := r.s.st.products[order.Items[i].ProductID]; ok {
			order.Items[i].Product = &p
		}
	}
	if order.SupplierID != nil {
		if s, ok := r.s.st.suppliers[*order.SupplierID]; ok {
			order.Supplier = &s
		}
	}
	return order
}

func (r *purchaseOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.PurchaseOrder, error) {
	defer r.s.lock(ctx)()

	order, ok := r.s.st.purchaseOrders[id]
	if !ok {
		return nil, nil
	}
	order = r.assemble(order)
	return &order, nil
}

func (r *purchaseOrderRepo) InvoiceExists(ctx context.Context, invoiceNo string) (bool, error) {
	defer r.s.lock(ctx)()

	for _, order := range r.s.st.purchaseOrders {
		if order.InvoiceNo == invoiceNo {
			return true, nil
		}
	}
	return false, nil
}

func (r *purchaseOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()

	delete(r.s.st.purchaseOrders, id)
	return nil
}

func (r *purchaseOrderRepo) List(ctx context.Context, params *pagination.PaginationParams, supplierID *uuid.UUID) ([]entity.PurchaseOrder, int64, error) {
	defer r.s.lock(ctx)()

	var matched []entity.PurchaseOrder
	for _, order := range r.s.st.purchaseOrders {
		if supplierID != nil && (order.SupplierID == nil || *order.SupplierID != *supplierID) {
			continue
		}
		matched = append(matched, r.assemble(order))
	}
	slices.SortFunc(matched, func(a, b entity.PurchaseOrder) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return page(matched, params), int64(len(matched)), nil
}

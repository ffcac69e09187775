package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type saleRepo struct{ s *Store }

func (r *saleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.st.sales {
		if existing.InvoiceNo == sale.InvoiceNo {
			return domainRepo.ErrDuplicate
		}
	}
	for _, p := range sale.Payments {
		if p.Reference != nil && r.referenceTaken(*p.Reference) {
			return domainRepo.ErrDuplicate
		}
	}

	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	r.s.stamp(&sale.CreatedAt, nil)

	for i := range sale.Items {
		if sale.Items[i].ID == uuid.Nil {
			sale.Items[i].ID = uuid.New()
		}
		sale.Items[i].SaleID = sale.ID
	}
	for i := range sale.Payments {
		p := &sale.Payments[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.SaleID = sale.ID
		r.s.stamp(&p.CreatedAt, &p.UpdatedAt)
		r.s.st.payments[p.ID] = *p
	}

	stored := *sale
	stored.Items = slices.Clone(sale.Items)
	stored.Payments = nil
	stored.Cashier = nil
	stored.Customer = nil
	r.s.st.sales[sale.ID] = stored
	return nil
}

func (r *saleRepo) referenceTaken(ref string) bool {
	for _, p := range r.s.st.payments {
		if p.Reference != nil && *p.Reference == ref {
			return true
		}
	}
	return false
}

// assemble attaches the relations gorm would preload.
func (r *saleRepo) assemble(sale entity.Sale) entity.Sale {
	sale.Items = slices.Clone(sale.Items)
	sale.Payments = paymentsOf(r.s.st, sale.ID)
	if u, ok := r.s.st.users[sale.CashierID]; ok {
		sale.Cashier = &u
	}
	if sale.CustomerID != nil {
		if c, ok := r.s.st.customers[*sale.CustomerID]; ok {
			sale.Customer = &c
		}
	}
	return sale
}

func paymentsOf(st state, saleID uuid.UUID) []entity.Payment {
	var payments []entity.Payment
	for _, p := range st.payments {
		if p.SaleID == saleID {
			payments = append(payments, p)
		}
	}
	slices.SortFunc(payments, func(a, b entity.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return payments
}

func (r *saleRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	defer r.s.lock(ctx)()

	sale, ok := r.s.st.sales[id]
	if !ok {
		return nil, nil
	}
	sale = r.assemble(sale)
	return &sale, nil
}

func (r *saleRepo) InvoiceExists(ctx context.Context, invoiceNo string) (bool, error) {
	defer r.s.lock(ctx)()

	for _, sale := range r.s.st.sales {
		if sale.InvoiceNo == invoiceNo {
			return true, nil
		}
	}
	return false, nil
}

func (r *saleRepo) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	defer r.s.lock(ctx)()

	var matched []entity.Sale
	for _, sale := range r.s.st.sales {
		if params.CashierID != nil && sale.CashierID != *params.CashierID {
			continue
		}
		if params.PaymentType != "" && string(sale.PaymentType) != params.PaymentType {
			continue
		}
		if params.From != nil && sale.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && sale.CreatedAt.After(*params.To) {
			continue
		}
		matched = append(matched, r.assemble(sale))
	}
	slices.SortFunc(matched, func(a, b entity.Sale) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return page(matched, params.Pagination), int64(len(matched)), nil
}

func (r *saleRepo) ListByCashierBetween(ctx context.Context, cashierID uuid.UUID, from, to time.Time) ([]entity.Sale, error) {
	defer r.s.lock(ctx)()

	var sales []entity.Sale
	for _, sale := range r.s.st.sales {
		if sale.CashierID != cashierID || sale.CreatedAt.Before(from) || sale.CreatedAt.After(to) {
			continue
		}
		sale.Items = slices.Clone(sale.Items)
		sale.Payments = paymentsOf(r.s.st, sale.ID)
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b entity.Sale) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return sales, nil
}

func (r *saleRepo) UpdatePaid(ctx context.Context, id uuid.UUID, paid decimal.Decimal) error {
	defer r.s.lock(ctx)()

	if sale, ok := r.s.st.sales[id]; ok {
		sale.Paid = paid
		r.s.st.sales[id] = sale
	}
	return nil
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) GetBySaleID(ctx context.Context, saleID uuid.UUID) (*entity.Payment, error) {
	defer r.s.lock(ctx)()

	payments := paymentsOf(r.s.st, saleID)
	if len(payments) == 0 {
		return nil, nil
	}
	return &payments[0], nil
}

// GetByReferenceForUpdate needs no row lock: a transaction already holds the store mutex.
func (r *paymentRepo) GetByReferenceForUpdate(ctx context.Context, reference string) (*entity.Payment, error) {
	defer r.s.lock(ctx)()

	for _, p := range r.s.st.payments {
		if p.Reference != nil && *p.Reference == reference {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *paymentRepo) Update(ctx context.Context, payment *entity.Payment) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.st.payments[payment.ID]
	if !ok {
		return nil
	}
	existing.Method = payment.Method
	existing.Status = payment.Status
	existing.Amount = payment.Amount
	existing.TransactionID = payment.TransactionID
	existing.PaidAt = payment.PaidAt
	r.s.stamp(nil, &existing.UpdatedAt)
	r.s.st.payments[payment.ID] = existing
	return nil
}

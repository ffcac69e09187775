package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/pagination"
)

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, product *entity.Product) error {
	defer r.s.lock(ctx)()

	if r.conflicts(uuid.Nil, product) {
		return domainRepo.ErrDuplicate
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.s.stamp(&product.CreatedAt, &product.UpdatedAt)

	stored := *product
	stored.Category = nil
	r.s.st.products[product.ID] = stored
	return nil
}

func (r *productRepo) conflicts(self uuid.UUID, product *entity.Product) bool {
	for id, existing := range r.s.st.products {
		if id == self {
			continue
		}
		if existing.SKU == product.SKU {
			return true
		}
		if product.Barcode != nil && existing.Barcode != nil && *existing.Barcode == *product.Barcode {
			return true
		}
	}
	return false
}

func (r *productRepo) withCategory(p entity.Product) entity.Product {
	if p.CategoryID != nil {
		if c, ok := r.s.st.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	return p
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.products[id]
	if !ok {
		return nil, nil
	}
	p = r.withCategory(p)
	return &p, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	defer r.s.lock(ctx)()

	products := make([]entity.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.st.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *productRepo) find(ctx context.Context, match func(entity.Product) bool) *entity.Product {
	defer r.s.lock(ctx)()

	for _, p := range r.s.st.products {
		if match(p) {
			p = r.withCategory(p)
			return &p
		}
	}
	return nil
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.find(ctx, func(p entity.Product) bool { return p.SKU == sku }), nil
}

func (r *productRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	return r.find(ctx, func(p entity.Product) bool { return p.Barcode != nil && *p.Barcode == barcode }), nil
}

func (r *productRepo) Update(ctx context.Context, product *entity.Product) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.st.products[product.ID]
	if !ok {
		return nil
	}
	if r.conflicts(product.ID, product) {
		return domainRepo.ErrDuplicate
	}

	existing.CategoryID = product.CategoryID
	existing.SKU = product.SKU
	existing.Barcode = product.Barcode
	existing.Name = product.Name
	existing.Price = product.Price
	existing.TaxRate = product.TaxRate
	existing.Active = product.Active
	r.s.stamp(nil, &existing.UpdatedAt)
	r.s.st.products[product.ID] = existing
	return nil
}

func (r *productRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	defer r.s.lock(ctx)()

	if p, ok := r.s.st.products[id]; ok {
		p.Active = active
		r.s.stamp(nil, &p.UpdatedAt)
		r.s.st.products[id] = p
	}
	return nil
}

func (r *productRepo) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, int64, error) {
	defer r.s.lock(ctx)()

	search := strings.ToLower(params.Search)
	var matched []entity.Product
	for _, p := range r.s.st.products {
		if params.ActiveOnly && !p.Active {
			continue
		}
		if params.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *params.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) &&
			(p.Barcode == nil || *p.Barcode != params.Search) {
			continue
		}
		matched = append(matched, r.withCategory(p))
	}
	slices.SortFunc(matched, func(a, b entity.Product) int { return cmp.Compare(a.Name, b.Name) })
	return page(matched, params.Pagination), int64(len(matched)), nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.products[id]
	if !ok || p.Stock < amount {
		return false, nil
	}
	p.Stock -= amount
	r.s.stamp(nil, &p.UpdatedAt)
	r.s.st.products[id] = p
	return true, nil
}

func (r *productRepo) IncrementStock(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.products[id]
	if !ok {
		return false, nil
	}
	p.Stock += amount
	r.s.stamp(nil, &p.UpdatedAt)
	r.s.st.products[id] = p
	return true, nil
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(ctx context.Context, category *entity.Category) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.st.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return domainRepo.ErrDuplicate
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	r.s.stamp(&category.CreatedAt, &category.UpdatedAt)
	r.s.st.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]entity.Category, error) {
	defer r.s.lock(ctx)()

	categories := make([]entity.Category, 0, len(r.s.st.categories))
	for _, c := range r.s.st.categories {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b entity.Category) int { return cmp.Compare(a.Name, b.Name) })
	return categories, nil
}

type customerRepo struct{ s *Store }

func (r *customerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	defer r.s.lock(ctx)()

	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	r.s.stamp(&customer.CreatedAt, &customer.UpdatedAt)
	r.s.st.customers[customer.ID] = *customer
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *customerRepo) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	defer r.s.lock(ctx)()

	search = strings.ToLower(search)
	var matched []entity.Customer
	for _, c := range r.s.st.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		matched = append(matched, c)
	}
	slices.SortFunc(matched, func(a, b entity.Customer) int { return cmp.Compare(a.Name, b.Name) })
	return page(matched, params), int64(len(matched)), nil
}

type supplierRepo struct{ s *Store }

func (r *supplierRepo) Create(ctx context.Context, supplier *entity.Supplier) error {
	defer r.s.lock(ctx)()

	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	r.s.stamp(&supplier.CreatedAt, &supplier.UpdatedAt)
	r.s.st.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *supplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Supplier, error) {
	defer r.s.lock(ctx)()

	s, ok := r.s.st.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *supplierRepo) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Supplier, int64, error) {
	defer r.s.lock(ctx)()

	search = strings.ToLower(search)
	var matched []entity.Supplier
	for _, s := range r.s.st.suppliers {
		if search != "" && !strings.Contains(strings.ToLower(s.Name), search) {
			continue
		}
		matched = append(matched, s)
	}
	slices.SortFunc(matched, func(a, b entity.Supplier) int { return cmp.Compare(a.Name, b.Name) })
	return page(matched, params), int64(len(matched)), nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *entity.User) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.st.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domainRepo.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.s.stamp(&user.CreatedAt, &user.UpdatedAt)
	r.s.st.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lock(ctx)()

	if u, ok := r.s.st.users[id]; ok {
		u.LastLoginAt = &at
		r.s.st.users[id] = u
	}
	return nil
}

type idempotencyRepo struct{ s *Store }

func (r *idempotencyRepo) find(userID uuid.UUID, key string) (uuid.UUID, entity.IdempotencyKey, bool) {
	for id, k := range r.s.st.idempotency {
		if k.UserID == userID && k.Key == key {
			return id, k, true
		}
	}
	return uuid.Nil, entity.IdempotencyKey{}, false
}

func (r *idempotencyRepo) FindLive(ctx context.Context, userID uuid.UUID, key string, now time.Time) (*entity.IdempotencyKey, error) {
	defer r.s.lock(ctx)()

	_, k, ok := r.find(userID, key)
	if !ok || !k.LiveAt(now) {
		return nil, nil
	}
	return &k, nil
}

func (r *idempotencyRepo) Save(ctx context.Context, ikey *entity.IdempotencyKey) error {
	defer r.s.lock(ctx)()

	r.s.stamp(&ikey.CreatedAt, nil)
	if id, k, ok := r.find(ikey.UserID, ikey.Key); ok {
		if k.LiveAt(ikey.CreatedAt) {
			return domainRepo.ErrDuplicate
		}
		delete(r.s.st.idempotency, id)
	}
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	r.s.st.idempotency[ikey.ID] = *ikey
	return nil
}

func (r *idempotencyRepo) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for id, k := range r.s.st.idempotency {
		if k.ExpiresAt.Before(cutoff) {
			delete(r.s.st.idempotency, id)
			n++
		}
	}
	return n, nil
}

// Package memory is an in-process implementation of every repository. It backs
// DB_DRIVER=memory and the service tests. Transactions serialize on a single
// mutex and roll back by restoring a snapshot.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/pagination"
)

type txKey struct{}

type state struct {
	products       map[uuid.UUID]entity.Product
	categories     map[uuid.UUID]entity.Category
	customers      map[uuid.UUID]entity.Customer
	suppliers      map[uuid.UUID]entity.Supplier
	users          map[uuid.UUID]entity.User
	sales          map[uuid.UUID]entity.Sale
	payments       map[uuid.UUID]entity.Payment
	shifts         map[uuid.UUID]entity.Shift
	purchaseOrders map[uuid.UUID]entity.PurchaseOrder
	idempotency    map[uuid.UUID]entity.IdempotencyKey
}

func newState() state {
	return state{
		products:       make(map[uuid.UUID]entity.Product),
		categories:     make(map[uuid.UUID]entity.Category),
		customers:      make(map[uuid.UUID]entity.Customer),
		suppliers:      make(map[uuid.UUID]entity.Supplier),
		users:          make(map[uuid.UUID]entity.User),
		sales:          make(map[uuid.UUID]entity.Sale),
		payments:       make(map[uuid.UUID]entity.Payment),
		shifts:         make(map[uuid.UUID]entity.Shift),
		purchaseOrders: make(map[uuid.UUID]entity.PurchaseOrder),
		idempotency:    make(map[uuid.UUID]entity.IdempotencyKey),
	}
}

// clone copies every map. Stored values are never mutated in place, so a
// shallow copy is a consistent snapshot.
func (st state) clone() state {
	return state{
		products:       maps.Clone(st.products),
		categories:     maps.Clone(st.categories),
		customers:      maps.Clone(st.customers),
		suppliers:      maps.Clone(st.suppliers),
		users:          maps.Clone(st.users),
		sales:          maps.Clone(st.sales),
		payments:       maps.Clone(st.payments),
		shifts:         maps.Clone(st.shifts),
		purchaseOrders: maps.Clone(st.purchaseOrders),
		idempotency:    maps.Clone(st.idempotency),
	}
}

type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithinTransaction implements repository.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock takes the store mutex unless ctx already runs inside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func (s *Store) Transactor() domainRepo.Transactor {
	return s
}

func (s *Store) Products() domainRepo.ProductRepository {
	return &productRepo{s}
}

func (s *Store) Categories() domainRepo.CategoryRepository {
	return &categoryRepo{s}
}

func (s *Store) Customers() domainRepo.CustomerRepository {
	return &customerRepo{s}
}

func (s *Store) Suppliers() domainRepo.SupplierRepository {
	return &supplierRepo{s}
}

func (s *Store) Users() domainRepo.UserRepository {
	return &userRepo{s}
}

func (s *Store) Sales() domainRepo.SaleRepository {
	return &saleRepo{s}
}

func (s *Store) Payments() domainRepo.PaymentRepository {
	return &paymentRepo{s}
}

func (s *Store) Shifts() domainRepo.ShiftRepository {
	return &shiftRepo{s}
}

func (s *Store) PurchaseOrders() domainRepo.PurchaseOrderRepository {
	return &purchaseOrderRepo{s}
}

func (s *Store) Idempotency() domainRepo.IdempotencyRepository {
	return &idempotencyRepo{s}
}

// page applies offset pagination to an already sorted slice.
func page[T any](items []T, params *pagination.PaginationParams) []T {
	params.Validate()
	start := params.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+params.PerPage, len(items))
	return slices.Clone(items[start:end])
}

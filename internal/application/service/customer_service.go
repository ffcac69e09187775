package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/pagination"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	Name    string  `validate:"required"`
	Email   *string `validate:"omitempty,email"`
	Phone   *string
	Address *string
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, actor *Actor, input *CreateCustomerInput) (*entity.Customer, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	customer := &entity.Customer{
		Name:    strings.TrimSpace(input.Name),
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, apperror.Persistence(err)
	}
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, actor *Actor, id uuid.UUID) (*entity.Customer, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists customers matching search
func (s *CustomerService) ListCustomers(ctx context.Context, actor *Actor, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Customer], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	customers, total, err := s.customerRepo.List(ctx, params, search)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return pagination.NewPaginatedResult(customers, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// SupplierService handles supplier-related operations
type SupplierService struct {
	supplierRepo repository.SupplierRepository
}

// NewSupplierService creates a new supplier service
func NewSupplierService(supplierRepo repository.SupplierRepository) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo}
}

// CreateSupplierInput represents the create supplier input
type CreateSupplierInput struct {
	Name        string `validate:"required"`
	ContactName *string
	Email       *string `validate:"omitempty,email"`
	Phone       *string
	Address     *string
}

// CreateSupplier creates a new supplier
func (s *SupplierService) CreateSupplier(ctx context.Context, actor *Actor, input *CreateSupplierInput) (*entity.Supplier, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	supplier := &entity.Supplier{
		Name:        strings.TrimSpace(input.Name),
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, apperror.Persistence(err)
	}
	return supplier, nil
}

// GetSupplier retrieves a supplier by ID
func (s *SupplierService) GetSupplier(ctx context.Context, actor *Actor, id uuid.UUID) (*entity.Supplier, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if supplier == nil {
		return nil, apperror.NewNotFoundError("Supplier")
	}
	return supplier, nil
}

// ListSuppliers lists suppliers matching search
func (s *SupplierService) ListSuppliers(ctx context.Context, actor *Actor, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Supplier], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	suppliers, total, err := s.supplierRepo.List(ctx, params, search)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return pagination.NewPaginatedResult(suppliers, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

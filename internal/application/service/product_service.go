package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ProductService handles the product catalog and categories
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	ledger       *InventoryLedger
}

// NewProductService creates a new product service
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	ledger *InventoryLedger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		ledger:       ledger,
	}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	CategoryID *uuid.UUID
	SKU        string
	Barcode    *string
	Name       string `validate:"required"`
	Price      decimal.Decimal
	TaxRate    *decimal.Decimal
	Stock      int `validate:"gte=0"`
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, actor *Actor, input *CreateProductInput) (*entity.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	taxRate := DefaultTaxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}
	if err := validatePricing(input.Price, taxRate); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	// Auto-generate SKU if not provided
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		sku = "SKU-" + strings.ToUpper(uuid.NewString()[:8])
	}

	product := &entity.Product{
		CategoryID: input.CategoryID,
		SKU:        sku,
		Barcode:    normalizeBarcode(input.Barcode),
		Name:       strings.TrimSpace(input.Name),
		Price:      input.Price,
		TaxRate:    taxRate,
		Stock:      input.Stock,
		Active:     true,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("Product SKU or barcode already exists")
		}
		return nil, apperror.Persistence(err)
	}

	return s.GetProduct(ctx, actor, product.ID)
}

func validatePricing(price, taxRate decimal.Decimal) error {
	if price.IsNegative() {
		return fieldError("price", "must not be negative")
	}
	if !ValidTaxRate(taxRate) {
		return fieldError("tax_rate", "must be between 0 and 1")
	}
	return nil
}

func normalizeBarcode(barcode *string) *string {
	if barcode == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*barcode)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *ProductService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	category, err := s.categoryRepo.GetByID(ctx, *id)
	if err != nil {
		return apperror.Persistence(err)
	}
	if category == nil {
		return apperror.NewNotFoundError("Category")
	}
	return nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, actor *Actor, id uuid.UUID) (*entity.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// LookupProduct finds an active product by barcode, falling back to SKU. Used by
// the cashier's scanner.
func (s *ProductService) LookupProduct(ctx context.Context, actor *Actor, code string) (*entity.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fieldError("code", "is required")
	}

	product, err := s.productRepo.GetByBarcode(ctx, code)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if product == nil {
		product, err = s.productRepo.GetBySKU(ctx, code)
		if err != nil {
			return nil, apperror.Persistence(err)
		}
	}
	if product == nil || (!product.Active && !actor.IsAdmin()) {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products with filtering. Cashiers only see active products.
func (s *ProductService) ListProducts(ctx context.Context, actor *Actor, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if params == nil {
		params = &repository.ProductFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()
	if !actor.IsAdmin() {
		params.ActiveOnly = true
	}

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return pagination.NewPaginatedResult(products, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// UpdateProductInput represents the update product input
type UpdateProductInput struct {
	CategoryID *uuid.UUID
	SKU        *string
	Barcode    *string
	Name       *string
	Price      *decimal.Decimal
	TaxRate    *decimal.Decimal
	Active     *bool
}

// UpdateProduct changes catalog fields. Stock is only changed through the
// inventory ledger, and past sale items keep their own price snapshot.
func (s *ProductService) UpdateProduct(ctx context.Context, actor *Actor, id uuid.UUID, input *UpdateProductInput) (*entity.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, fieldError("sku", "must not be empty")
		}
		product.SKU = sku
	}
	if input.Barcode != nil {
		product.Barcode = normalizeBarcode(input.Barcode)
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fieldError("name", "must not be empty")
		}
		product.Name = name
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.TaxRate != nil {
		product.TaxRate = *input.TaxRate
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	if err := validatePricing(product.Price, product.TaxRate); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("Product SKU or barcode already exists")
		}
		return nil, apperror.Persistence(err)
	}

	return s.GetProduct(ctx, actor, product.ID)
}

// DeactivateProduct removes a product from sale without touching its stock.
func (s *ProductService) DeactivateProduct(ctx context.Context, actor *Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.ledger.Deactivate(ctx, id)
}

// RestockProduct adds counted stock outside a purchase order.
func (s *ProductService) RestockProduct(ctx context.Context, actor *Actor, id uuid.UUID, quantity int) (*entity.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.ledger.Increment(ctx, id, quantity); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, actor, id)
}

// CreateCategory creates a new category
func (s *ProductService) CreateCategory(ctx context.Context, actor *Actor, name string) (*entity.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fieldError("name", "is required")
	}

	category := &entity.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflictError("Category already exists")
		}
		return nil, apperror.Persistence(err)
	}
	return category, nil
}

// ListCategories lists all categories by name
func (s *ProductService) ListCategories(ctx context.Context, actor *Actor) ([]entity.Category, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return categories, nil
}

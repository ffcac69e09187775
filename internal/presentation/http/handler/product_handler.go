package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/kopi-pos/pkg/pagination"
)

// ProductHandler handles product and category HTTP requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List handles listing products
// @Summary List products
// @Tags products
// @Param search query string false "Name, SKU or barcode"
// @Param category_id query string false "Category"
// @Router /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var filter request.ProductFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.ProductFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    filter.Page,
			PerPage: filter.PerPage,
		},
		Search: filter.Search,
	}
	params.Pagination.Validate()

	if filter.CategoryID != "" {
		catID, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			response.BadRequest(c, "Invalid category_id")
			return
		}
		params.CategoryID = &catID
	}

	result, err := h.productService.ListProducts(c.Request.Context(), actor, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Products retrieved", result)
}

// Create handles creating a product
// @Summary Create product
// @Tags products
// @Accept json
// @Param request body request.CreateProductRequest true "Product"
// @Router /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req request.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actor, &service.CreateProductInput{
		CategoryID: req.CategoryID,
		SKU:        req.SKU,
		Barcode:    req.Barcode,
		Name:       req.Name,
		Price:      req.Price,
		TaxRate:    req.TaxRate,
		Stock:      req.Stock,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Product created", product)
}

// Get handles getting a product by ID
func (h *ProductHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved", product)
}

// Lookup resolves a scanned barcode or typed SKU
func (h *ProductHandler) Lookup(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "code is required")
		return
	}

	product, err := h.productService.LookupProduct(c.Request.Context(), actor, code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved", product)
}

// Update handles updating a product
func (h *ProductHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req request.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), actor, id, &service.UpdateProductInput{
		CategoryID: req.CategoryID,
		SKU:        req.SKU,
		Barcode:    req.Barcode,
		Name:       req.Name,
		Price:      req.Price,
		TaxRate:    req.TaxRate,
		Active:     req.Active,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product updated", product)
}

// Deactivate hides a product from the register. Products are never hard
// deleted because sale items reference them.
func (h *ProductHandler) Deactivate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeactivateProduct(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product deactivated", nil)
}

// Restock handles a manual stock increment
func (h *ProductHandler) Restock(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req request.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	product, err := h.productService.RestockProduct(c.Request.Context(), actor, id, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product restocked", product)
}

// ListCategories handles listing categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	categories, err := h.productService.ListCategories(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Categories retrieved", categories)
}

// CreateCategory handles creating a category
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req request.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	category, err := h.productService.CreateCategory(c.Request.Context(), actor, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Category created", category)
}

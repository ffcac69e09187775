package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/kopi-pos/pkg/pagination"
)

// SaleHandler handles checkout, sale lookups and receipts
type SaleHandler struct {
	saleService    *service.SaleService
	paymentService *service.PaymentService
	receiptService *service.ReceiptService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService, paymentService *service.PaymentService, receiptService *service.ReceiptService) *SaleHandler {
	return &SaleHandler{
		saleService:    saleService,
		paymentService: paymentService,
		receiptService: receiptService,
	}
}

func (h *SaleHandler) listInput(c *gin.Context) (*service.SaleListInput, bool) {
	var filter request.SaleFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return nil, false
	}
	params := &pagination.PaginationParams{Page: filter.Page, PerPage: filter.PerPage}
	params.Validate()
	return &service.SaleListInput{
		Pagination:  params,
		PaymentType: filter.PaymentType,
		From:        filter.From,
		To:          filter.To,
	}, true
}

// List returns all sales. Admin only.
func (h *SaleHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	input, ok := h.listInput(c)
	if !ok {
		return
	}

	result, err := h.saleService.ListSales(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Sales retrieved", result)
}

// ListMine returns the caller's own sales
func (h *SaleHandler) ListMine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	input, ok := h.listInput(c)
	if !ok {
		return
	}

	result, err := h.saleService.ListMySales(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Sales retrieved", result)
}

// Create handles checkout
// @Summary Create sale
// @Description Prices the cart, records the payment and decrements stock atomically
// @Tags sales
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Retry key"
// @Param request body request.CreateSaleRequest true "Cart"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req request.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	items := make([]service.SaleItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.SaleItemInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), actor, &service.CreateSaleInput{
		CustomerID:  req.CustomerID,
		PaymentType: enum.PaymentMethod(req.PaymentType),
		Paid:        req.Paid,
		Items:       items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale created", sale)
}

// Get handles getting a sale by ID
func (h *SaleHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved", sale)
}

// Charge opens the gateway payment for a pending QRIS or transfer sale
func (h *SaleHandler) Charge(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req request.ChargeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	result, err := h.paymentService.ChargeSale(c.Request.Context(), actor, id, service.ChargeInput{Bank: enum.Bank(req.Bank)})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Charge created", result)
}

// PaymentStatus polls the gateway for a pending digital payment
func (h *SaleHandler) PaymentStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.paymentService.CheckPaymentStatus(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment status retrieved", result)
}

// PrintReceipt sends the sale's receipt to the configured printer. A printer
// failure still returns the receipt so the terminal can show it.
func (h *SaleHandler) PrintReceipt(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receiptService.PrintSaleReceipt(c.Request.Context(), actor, id)
	if err != nil && !errors.Is(err, service.ErrPrintFailed) {
		response.Error(c, err)
		return
	}

	if err != nil {
		response.OK(c, "Receipt could not be printed", gin.H{
			"printed": false,
			"receipt": receipt,
			"warning": err.Error(),
		})
		return
	}
	response.OK(c, "Receipt printed", gin.H{
		"printed": true,
		"receipt": receipt,
	})
}

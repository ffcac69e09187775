package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/response"
)

// PurchaseHandler handles purchase order HTTP requests
type PurchaseHandler struct {
	purchaseService *service.PurchaseService
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchaseService *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// List handles listing purchase orders, optionally for one supplier
func (h *PurchaseHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var supplierID *uuid.UUID
	if raw := c.Query("supplier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "Invalid supplier_id")
			return
		}
		supplierID = &id
	}

	result, err := h.purchaseService.ListPurchaseOrders(c.Request.Context(), actor, pageParams(c), supplierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Purchase orders retrieved", result)
}

// Create records received stock
// @Summary Create purchase order
// @Tags purchase-orders
// @Accept json
// @Param request body request.CreatePurchaseRequest true "Purchase order"
// @Router /purchase-orders [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req request.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	items := make([]service.PurchaseItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.PurchaseItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		}
	}

	order, err := h.purchaseService.CreatePurchaseOrder(c.Request.Context(), actor, &service.CreatePurchaseInput{
		SupplierID: req.SupplierID,
		Notes:      req.Notes,
		Items:      items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Purchase order created", order)
}

// Get handles getting a purchase order by ID
func (h *PurchaseHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.purchaseService.GetPurchaseOrder(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Purchase order retrieved", order)
}

// Delete removes a purchase order and takes its stock back out
func (h *PurchaseHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.purchaseService.DeletePurchaseOrder(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Purchase order deleted", nil)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/response"
)

// ShiftHandler handles cash drawer shifts
type ShiftHandler struct {
	shiftService *service.ShiftService
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shiftService *service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// List returns shifts; ?open=true keeps only open ones
func (h *ShiftHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.shiftService.ListShifts(c.Request.Context(), actor, pageParams(c), c.Query("open") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Shifts retrieved", result)
}

func (h *ShiftHandler) Active(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	shift, err := h.shiftService.ActiveShift(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Active shift retrieved", shift)
}

func (h *ShiftHandler) Open(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req request.OpenShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	shift, err := h.shiftService.OpenShift(c.Request.Context(), actor, &service.OpenShiftInput{
		OpeningCash: req.OpeningCash,
		Notes:       req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Shift opened", shift)
}

func (h *ShiftHandler) Close(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req request.CloseShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	shift, err := h.shiftService.CloseShift(c.Request.Context(), actor, id, &service.CloseShiftInput{
		ClosingCash: req.ClosingCash,
		Notes:       req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Shift closed", shift)
}

// Summary reconciles the drawer for a shift
func (h *ShiftHandler) Summary(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.shiftService.GetShiftSummary(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Shift summary retrieved", summary)
}

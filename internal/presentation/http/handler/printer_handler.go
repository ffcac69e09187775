package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/response"
)

// PrinterHandler exposes the receipt printer
type PrinterHandler struct {
	receiptService *service.ReceiptService
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(receiptService *service.ReceiptService) *PrinterHandler {
	return &PrinterHandler{receiptService: receiptService}
}

// Status reports whether a printer is configured and reachable
func (h *PrinterHandler) Status(c *gin.Context) {
	response.OK(c, "Printer status retrieved", h.receiptService.Status(c.Request.Context()))
}

// TestPrint prints a sample receipt
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.TestPrint(c.Request.Context(), actor)
	if err != nil && !errors.Is(err, service.ErrPrintFailed) {
		response.Error(c, err)
		return
	}
	if err != nil {
		response.OK(c, "Test receipt could not be printed", gin.H{
			"printed": false,
			"receipt": receipt,
			"warning": err.Error(),
		})
		return
	}

	response.OK(c, "Test receipt printed", gin.H{"printed": true, "receipt": receipt})
}

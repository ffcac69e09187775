package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/infrastructure/payment"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// PaymentHandler receives gateway notifications
type PaymentHandler struct {
	paymentService *service.PaymentService
	log            *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, log: log}
}

// Webhook answers with the gateway's own contract instead of the API envelope:
// 200 once the signature is valid, 403 when it is not.
// @Summary Payment notification
// @Tags payments
// @Accept json
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var n payment.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		h.log.WithError(err).Warn("malformed payment notification")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payload"})
		return
	}

	err := h.paymentService.HandleNotification(c.Request.Context(), &n)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, apperror.ErrInvalidSignature):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Invalid signature"})
	default:
		h.log.WithError(err).Error("payment notification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}

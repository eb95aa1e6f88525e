package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/service"
)

// PaymentHandler предоставляет HTTP слой для платежей.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler создаёт хэндлер.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Initiate обрабатывает POST /payments/initiate.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		OrderID string `json:"order_id" binding:"required,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID, err := parseUUID(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор заказа"})
		return
	}

	gatewayOrder, err := h.payments.InitiatePayment(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gateway_order": gatewayOrder})
}

// Verify обрабатывает POST /payments/verify.
// Любое отсутствующее поле или неверная подпись дают 400.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req struct {
		GatewayOrderID   string `json:"gateway_order_id"`
		GatewayPaymentID string `json:"gateway_payment_id"`
		Signature        string `json:"signature"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.payments.Verify(c.Request.Context(), service.VerifyInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{
				"verified": false,
				"error":    apperror.ErrInvalidSignature.Message,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verified": true,
		"order":    order,
	})
}

// Fail обрабатывает POST /payments/fail.
func (h *PaymentHandler) Fail(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		OrderID string `json:"order_id" binding:"required,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID, err := parseUUID(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор заказа"})
		return
	}

	if err := h.payments.MarkFailed(c.Request.Context(), userID, orderID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "платёж помечен неуспешным"})
}

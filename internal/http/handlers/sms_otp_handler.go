package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/storefront-backend/internal/service"
)

// SMSOTPHandler предоставляет HTTP слой подтверждения телефона по SMS.
type SMSOTPHandler struct {
	otp *service.SMSOTPService
}

// NewSMSOTPHandler создаёт хэндлер.
func NewSMSOTPHandler(otp *service.SMSOTPService) *SMSOTPHandler {
	return &SMSOTPHandler{otp: otp}
}

// Send обрабатывает POST /otp/send.
func (h *SMSOTPHandler) Send(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, err := h.otp.Send(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "код отправлен",
		"session_id": sessionID,
	})
}

// Verify обрабатывает POST /otp/verify.
func (h *SMSOTPHandler) Verify(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Code      string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.otp.Verify(c.Request.Context(), req.SessionID, req.Code); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

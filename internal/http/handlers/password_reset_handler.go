package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/storefront-backend/internal/service"
)

// PasswordResetHandler предоставляет HTTP слой восстановления пароля.
type PasswordResetHandler struct {
	reset *service.PasswordResetService
	// debugCodes включает выдачу кода в ответе вне production
	debugCodes bool
}

// NewPasswordResetHandler создаёт хэндлер.
func NewPasswordResetHandler(reset *service.PasswordResetService, debugCodes bool) *PasswordResetHandler {
	return &PasswordResetHandler{reset: reset, debugCodes: debugCodes}
}

// Forgot обрабатывает POST /auth/forgot-password.
func (h *PasswordResetHandler) Forgot(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.reset.Issue(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"message":    "код отправлен на email",
		"expires_at": result.ExpiresAt,
	}
	if h.debugCodes {
		resp["debug_otp"] = result.Code
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyOTP обрабатывает POST /auth/verify-otp.
func (h *PasswordResetHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.reset.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "код подтверждён",
		"reset_token": token,
	})
}

// Reset обрабатывает POST /auth/reset-password.
func (h *PasswordResetHandler) Reset(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		ResetToken  string `json:"reset_token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reset.Reset(c.Request.Context(), req.Email, req.ResetToken, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "пароль обновлён, войдите с новым паролем"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/storefront-backend/internal/service"
)

// SettingsHandler предоставляет HTTP слой настроек магазина.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler создаёт хэндлер.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get обрабатывает GET /settings.
// Публичный endpoint: отдаёт витринные настройки магазина.
func (h *SettingsHandler) Get(c *gin.Context) {
	store := h.settings.Get(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"site_name":              store.SiteName,
		"site_email":             store.SiteEmail,
		"site_phone":             store.SitePhone,
		"online_payment_enabled": store.OnlinePaymentEnabled,
		"cod_enabled":            store.CODEnabled,
	})
}

// Update обрабатывает PUT /admin/settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req map[string]string

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "нет настроек для обновления"})
		return
	}

	if err := h.settings.Update(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "настройки обновлены"})
}

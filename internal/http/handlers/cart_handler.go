package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/service"
)

// CartHandler предоставляет HTTP слой корзины.
type CartHandler struct {
	cart     *service.CartService
	settings *service.SettingsService
}

// NewCartHandler создаёт хэндлер.
func NewCartHandler(cart *service.CartService, settings *service.SettingsService) *CartHandler {
	return &CartHandler{cart: cart, settings: settings}
}

// Get обрабатывает GET /cart.
func (h *CartHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	store := h.settings.Get(c.Request.Context())

	cart, err := h.cart.Get(c.Request.Context(), userID, store.DefaultTransportCharges)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// Add обрабатывает POST /cart/items.
func (h *CartHandler) Add(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		ProductID string  `json:"product_id" binding:"required,uuid"`
		VariantID *string `json:"variant_id"`
		Quantity  int     `json:"quantity" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	productID, err := parseUUID(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор товара"})
		return
	}

	var variantID *uuid.UUID
	if req.VariantID != nil {
		parsed, err := uuid.Parse(*req.VariantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор варианта"})
			return
		}
		variantID = &parsed
	}

	item, err := h.cart.Add(c.Request.Context(), userID, productID, variantID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateQuantity обрабатывает PUT /cart/items/:id.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	itemID, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор позиции"})
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.cart.UpdateQuantity(c.Request.Context(), userID, itemID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "количество обновлено"})
}

// Remove обрабатывает DELETE /cart/items/:id.
func (h *CartHandler) Remove(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	itemID, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор позиции"})
		return
	}

	if err := h.cart.Remove(c.Request.Context(), userID, itemID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "позиция удалена"})
}

// Clear обрабатывает DELETE /cart.
func (h *CartHandler) Clear(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if err := h.cart.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "корзина очищена"})
}

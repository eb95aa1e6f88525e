package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/service"
)

// CatalogHandler предоставляет HTTP слой каталога.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler создаёт хэндлер.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories обрабатывает GET /categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListProducts обрабатывает GET /products.
// Поддерживает фильтр по категории и пагинацию.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	limit, offset := getPagination(c)

	products, err := h.catalog.ListProducts(c.Request.Context(), c.Query("category"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct обрабатывает GET /products/:slug.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateCategory обрабатывает POST /admin/categories.
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Slug        string  `json:"slug" binding:"required"`
		Description *string `json:"description"`
		ParentID    *string `json:"parent_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}

	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор родительской категории"})
			return
		}
		category.ParentID = &parentID
	}

	if err := h.catalog.CreateCategory(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// productRequest описывает тело запроса создания и обновления товара.
type productRequest struct {
	Name             string  `json:"name" binding:"required"`
	Slug             string  `json:"slug" binding:"required"`
	Description      *string `json:"description"`
	BasePrice        float64 `json:"base_price"`
	CategoryID       string  `json:"category_id" binding:"required,uuid"`
	StockQuantity    int     `json:"stock_quantity"`
	GSTPercentage    float64 `json:"gst_percentage"`
	TransportCharges float64 `json:"transport_charges"`
	ImageURL         *string `json:"image_url"`
	IsActive         *bool   `json:"is_active"`
}

func (r *productRequest) toModel() (*models.Product, error) {
	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:             r.Name,
		Slug:             r.Slug,
		Description:      r.Description,
		BasePrice:        r.BasePrice,
		CategoryID:       categoryID,
		StockQuantity:    r.StockQuantity,
		GSTPercentage:    r.GSTPercentage,
		TransportCharges: r.TransportCharges,
		ImageURL:         r.ImageURL,
		IsActive:         true,
	}
	if r.IsActive != nil {
		product.IsActive = *r.IsActive
	}
	return product, nil
}

// CreateProduct обрабатывает POST /admin/products.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор категории"})
		return
	}

	if err := h.catalog.CreateProduct(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct обрабатывает PUT /admin/products/:id.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	productID, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор товара"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор категории"})
		return
	}
	product.ID = productID

	if err := h.catalog.UpdateProduct(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/storefront-backend/internal/models"
)

// Ошибки каталога.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
)

// CatalogRepository отвечает за таблицы categories, products и product_variants.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository создаёт экземпляр репозитория.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCategories возвращает все категории.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	query := `SELECT id, name, slug, description, parent_id, created_at FROM categories ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("catalog repository: list categories %w", err)
	}
	return categories, nil
}

// GetCategoryBySlug возвращает категорию по slug.
func (r *CatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	query := `SELECT id, name, slug, description, parent_id, created_at FROM categories WHERE slug = $1`
	if err := r.db.GetContext(ctx, &category, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("catalog repository: get category %w", err)
	}
	return &category, nil
}

// CreateCategory создаёт категорию.
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		category.Name, category.Slug, category.Description, category.ParentID,
	).Scan(&category.ID, &category.CreatedAt); err != nil {
		return fmt.Errorf("catalog repository: create category %w", err)
	}
	return nil
}

// ListProducts возвращает активные товары, опционально отфильтрованные по категории.
func (r *CatalogRepository) ListProducts(ctx context.Context, categoryID *uuid.UUID, limit, offset int) ([]models.Product, error) {
	var products []models.Product

	query := `
		SELECT id, name, slug, description, base_price, category_id, stock_quantity,
		       gst_percentage, transport_charges, image_url, is_active, created_at
		FROM products
		WHERE is_active = TRUE
	`
	args := []interface{}{}
	if categoryID != nil {
		query += ` AND category_id = $1`
		args = append(args, *categoryID)
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT %d OFFSET %d`, limit, offset)

	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("catalog repository: list products %w", err)
	}
	return products, nil
}

// GetProductBySlug возвращает активный товар со всеми вариантами.
func (r *CatalogRepository) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	query := `
		SELECT id, name, slug, description, base_price, category_id, stock_quantity,
		       gst_percentage, transport_charges, image_url, is_active, created_at
		FROM products
		WHERE slug = $1 AND is_active = TRUE
	`
	if err := r.db.GetContext(ctx, &product, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("catalog repository: get product %w", err)
	}

	variants, err := r.ListVariants(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	product.Variants = variants

	return &product, nil
}

// GetProductByID возвращает товар по идентификатору, включая неактивные.
func (r *CatalogRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	query := `
		SELECT id, name, slug, description, base_price, category_id, stock_quantity,
		       gst_percentage, transport_charges, image_url, is_active, created_at
		FROM products
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("catalog repository: get product by id %w", err)
	}
	return &product, nil
}

// ListVariants возвращает варианты товара.
func (r *CatalogRepository) ListVariants(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	query := `
		SELECT id, product_id, variant_name, variant_value, price_modifier, stock_quantity, created_at
		FROM product_variants
		WHERE product_id = $1
		ORDER BY variant_value
	`
	if err := r.db.SelectContext(ctx, &variants, query, productID); err != nil {
		return nil, fmt.Errorf("catalog repository: list variants %w", err)
	}
	return variants, nil
}

// GetVariantByID возвращает вариант товара.
func (r *CatalogRepository) GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	query := `
		SELECT id, product_id, variant_name, variant_value, price_modifier, stock_quantity, created_at
		FROM product_variants
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &variant, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("catalog repository: get variant %w", err)
	}
	return &variant, nil
}

// CreateProduct создаёт товар.
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (name, slug, description, base_price, category_id, stock_quantity,
		                      gst_percentage, transport_charges, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		product.Name, product.Slug, product.Description, product.BasePrice, product.CategoryID,
		product.StockQuantity, product.GSTPercentage, product.TransportCharges,
		product.ImageURL, product.IsActive,
	).Scan(&product.ID, &product.CreatedAt); err != nil {
		return fmt.Errorf("catalog repository: create product %w", err)
	}
	return nil
}

// UpdateProduct обновляет товар.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, base_price = $5, category_id = $6,
		    stock_quantity = $7, gst_percentage = $8, transport_charges = $9,
		    image_url = $10, is_active = $11
		WHERE id = $1
	`,
		product.ID, product.Name, product.Slug, product.Description, product.BasePrice,
		product.CategoryID, product.StockQuantity, product.GSTPercentage,
		product.TransportCharges, product.ImageURL, product.IsActive,
	)
	if err != nil {
		return fmt.Errorf("catalog repository: update product %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementStock уменьшает остаток товара или варианта на указанное количество.
func (r *CatalogRepository) DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	if variantID != nil {
		_, err := r.db.ExecContext(ctx, `
			UPDATE product_variants SET stock_quantity = GREATEST(stock_quantity - $2, 0) WHERE id = $1
		`, *variantID, quantity)
		if err != nil {
			return fmt.Errorf("catalog repository: decrement variant stock %w", err)
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock_quantity = GREATEST(stock_quantity - $2, 0) WHERE id = $1
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("catalog repository: decrement stock %w", err)
	}
	return nil
}

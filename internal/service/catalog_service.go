package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/repository"
	"github.com/ignatzorin/storefront-backend/internal/validation"
)

// CatalogStore описывает зависимости сервиса от репозитория каталога.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	ListProducts(ctx context.Context, categoryID *uuid.UUID, limit, offset int) ([]models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
}

// CatalogService отдаёт каталог покупателям и позволяет администратору
// управлять товарами.
type CatalogService struct {
	repo CatalogStore
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(repo CatalogStore) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListCategories возвращает все категории.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

// ListProducts возвращает страницу активных товаров, опционально по категории.
func (s *CatalogService) ListProducts(ctx context.Context, categorySlug string, limit, offset int) ([]models.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var categoryID *uuid.UUID
	if categorySlug != "" {
		category, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, apperror.New(apperror.ErrCodeNotFound, "категория не найдена")
			}
			return nil, err
		}
		categoryID = &category.ID
	}

	return s.repo.ListProducts(ctx, categoryID, limit, offset)
}

// GetProduct возвращает товар с вариантами по slug.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "товар не найден")
		}
		return nil, err
	}
	return product, nil
}

// CreateCategory добавляет категорию. Только для администратора.
func (s *CatalogService) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := validation.ValidateNonEmpty("name", category.Name); err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}
	if err := validation.ValidateNonEmpty("slug", category.Slug); err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}
	return s.repo.CreateCategory(ctx, category)
}

// CreateProduct добавляет товар. Только для администратора.
func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	return s.repo.CreateProduct(ctx, product)
}

// UpdateProduct обновляет товар. Только для администратора.
func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "товар не найден")
		}
		return err
	}
	return nil
}

func validateProduct(product *models.Product) error {
	if err := validation.ValidateNonEmpty("name", product.Name); err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}
	if err := validation.ValidateNonEmpty("slug", product.Slug); err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}
	if product.BasePrice < 0 {
		return apperror.New(apperror.ErrCodeValidation, "цена не может быть отрицательной")
	}
	if product.GSTPercentage < 0 || product.GSTPercentage > 100 {
		return apperror.New(apperror.ErrCodeValidation, "ставка налога должна быть в диапазоне 0-100")
	}
	if product.StockQuantity < 0 {
		return apperror.New(apperror.ErrCodeValidation, "остаток не может быть отрицательным")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/repository"
	"github.com/ignatzorin/storefront-backend/internal/validation"
)

// CartStore описывает зависимости сервиса от репозитория корзины.
type CartStore interface {
	Upsert(ctx context.Context, item *models.CartItem) error
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	GetByID(ctx context.Context, itemID, userID uuid.UUID) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID, userID uuid.UUID, quantity int) error
	Delete(ctx context.Context, itemID, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// CartCatalog описывает операции каталога, нужные корзине.
type CartCatalog interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

// CartService управляет корзиной покупателя.
type CartService struct {
	repo    CartStore
	catalog CartCatalog
}

// Cart возвращается покупателю вместе с расчётом стоимости.
type Cart struct {
	Items     []models.CartItem     `json:"items"`
	Breakdown models.PriceBreakdown `json:"breakdown"`
}

// NewCartService создаёт сервис корзины.
func NewCartService(repo CartStore, catalog CartCatalog) *CartService {
	return &CartService{repo: repo, catalog: catalog}
}

// Add кладёт товар в корзину. Повторное добавление той же пары
// (товар, вариант) суммирует количество.
func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*models.CartItem, error) {
	if err := validation.ValidateQuantity(quantity); err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "товар не найден")
		}
		return nil, err
	}

	if !product.IsActive {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "товар недоступен для заказа")
	}

	stock := product.StockQuantity
	if variantID != nil {
		variant, err := s.catalog.GetVariantByID(ctx, *variantID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, apperror.New(apperror.ErrCodeNotFound, "вариант товара не найден")
			}
			return nil, err
		}
		if variant.ProductID != productID {
			return nil, apperror.New(apperror.ErrCodeBadRequest, "вариант не относится к этому товару")
		}
		stock = variant.StockQuantity
	}

	if quantity > stock {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "недостаточно товара на складе")
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}

	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// Get возвращает корзину с товарами и расчётом стоимости.
// defaultTransport применяется, когда у товаров не задана своя доставка.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID, defaultTransport float64) (*Cart, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range items {
		product, err := s.catalog.GetProductByID(ctx, items[i].ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				// Товар удалили после добавления в корзину, позицию пропускаем
				continue
			}
			return nil, err
		}
		items[i].Product = product

		if items[i].VariantID != nil {
			variant, err := s.catalog.GetVariantByID(ctx, *items[i].VariantID)
			if err == nil {
				items[i].Variant = variant
			}
		}
	}

	return &Cart{
		Items:     items,
		Breakdown: ComputeBreakdown(items, defaultTransport),
	}, nil
}

// UpdateQuantity меняет количество позиции.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if err := validation.ValidateQuantity(quantity); err != nil {
		return fmt.Errorf("cart service: %w", err)
	}

	if err := s.repo.UpdateQuantity(ctx, itemID, userID, quantity); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "позиция корзины не найдена")
		}
		return err
	}
	return nil
}

// Remove удаляет позицию из корзины.
func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.repo.Delete(ctx, itemID, userID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "позиция корзины не найдена")
		}
		return err
	}
	return nil
}

// Clear очищает корзину.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

// UnitPrice возвращает цену позиции с учётом надбавки варианта.
func UnitPrice(product *models.Product, variant *models.ProductVariant) float64 {
	price := product.BasePrice
	if variant != nil {
		price += variant.PriceModifier
	}
	return price
}

// ComputeBreakdown считает стоимость корзины: сумму позиций, налог по
// ставке каждого товара и доставку. Доставка берётся как максимум по
// товарам, при нуле используется значение магазина по умолчанию.
// Все суммы округляются до двух знаков.
func ComputeBreakdown(items []models.CartItem, defaultTransport float64) models.PriceBreakdown {
	var breakdown models.PriceBreakdown
	var transport float64
	var hasItems bool

	for _, item := range items {
		if item.Product == nil {
			continue
		}
		hasItems = true

		lineTotal := UnitPrice(item.Product, item.Variant) * float64(item.Quantity)
		breakdown.Subtotal += lineTotal
		breakdown.GST += lineTotal * item.Product.GSTPercentage / 100

		if item.Product.TransportCharges > transport {
			transport = item.Product.TransportCharges
		}
	}

	if hasItems {
		if transport == 0 {
			transport = defaultTransport
		}
		breakdown.Transport = transport
	}

	breakdown.Subtotal = roundMoney(breakdown.Subtotal)
	breakdown.GST = roundMoney(breakdown.GST)
	breakdown.Transport = roundMoney(breakdown.Transport)
	breakdown.Total = roundMoney(breakdown.Subtotal + breakdown.GST + breakdown.Transport)

	return breakdown
}

// roundMoney округляет сумму до двух знаков после запятой.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

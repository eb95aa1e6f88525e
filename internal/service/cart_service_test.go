package service

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/models"
)

func cartItemFor(product *models.Product, variant *models.ProductVariant, quantity int) models.CartItem {
	item := models.CartItem{
		ID:        uuid.New(),
		ProductID: product.ID,
		Quantity:  quantity,
		Product:   product,
		Variant:   variant,
	}
	if variant != nil {
		item.VariantID = &variant.ID
	}
	return item
}

func TestComputeBreakdown(t *testing.T) {
	tea := &models.Product{
		ID:            uuid.New(),
		Name:          "Green Tea",
		BasePrice:     250,
		GSTPercentage: 18,
	}
	honey := &models.Product{
		ID:               uuid.New(),
		Name:             "Forest Honey",
		BasePrice:        400,
		GSTPercentage:    5,
		TransportCharges: 80,
	}
	large := &models.ProductVariant{
		ID:            uuid.New(),
		ProductID:     honey.ID,
		VariantName:   "Weight",
		VariantValue:  "1kg",
		PriceModifier: 150,
	}

	items := []models.CartItem{
		cartItemFor(tea, nil, 2),
		cartItemFor(honey, large, 1),
	}

	got := ComputeBreakdown(items, 50)

	// 2*250 + (400+150) = 1050
	if got.Subtotal != 1050 {
		t.Fatalf("subtotal: ожидалось 1050, получили %v", got.Subtotal)
	}
	// 500*0.18 + 550*0.05 = 90 + 27.5
	if got.GST != 117.5 {
		t.Fatalf("gst: ожидалось 117.5, получили %v", got.GST)
	}
	// Доставка берётся как максимум по товарам
	if got.Transport != 80 {
		t.Fatalf("transport: ожидалось 80, получили %v", got.Transport)
	}
	if got.Total != 1247.5 {
		t.Fatalf("total: ожидалось 1247.5, получили %v", got.Total)
	}
}

func TestComputeBreakdown_DefaultTransport(t *testing.T) {
	product := &models.Product{ID: uuid.New(), BasePrice: 100, GSTPercentage: 0}
	items := []models.CartItem{cartItemFor(product, nil, 1)}

	got := ComputeBreakdown(items, 40)
	if got.Transport != 40 {
		t.Fatalf("при нулевой доставке товаров применяется дефолт магазина, получили %v", got.Transport)
	}
	if got.Total != 140 {
		t.Fatalf("total: ожидалось 140, получили %v", got.Total)
	}
}

func TestComputeBreakdown_EmptyCart(t *testing.T) {
	got := ComputeBreakdown(nil, 50)
	if got.Total != 0 || got.Transport != 0 {
		t.Fatalf("пустая корзина должна стоить ноль: %+v", got)
	}
}

func TestComputeBreakdown_Rounding(t *testing.T) {
	product := &models.Product{ID: uuid.New(), BasePrice: 33.33, GSTPercentage: 18}
	items := []models.CartItem{cartItemFor(product, nil, 3)}

	got := ComputeBreakdown(items, 0)
	if got.Subtotal != 99.99 {
		t.Fatalf("subtotal: ожидалось 99.99, получили %v", got.Subtotal)
	}
	// 99.99 * 0.18 = 17.9982 -> 18.00
	if got.GST != 18 {
		t.Fatalf("gst должен округляться до двух знаков, получили %v", got.GST)
	}
}

func TestUnitPrice(t *testing.T) {
	product := &models.Product{BasePrice: 200}
	variant := &models.ProductVariant{PriceModifier: 50}

	if got := UnitPrice(product, nil); got != 200 {
		t.Fatalf("цена без варианта: ожидалось 200, получили %v", got)
	}
	if got := UnitPrice(product, variant); got != 250 {
		t.Fatalf("цена с вариантом: ожидалось 250, получили %v", got)
	}
}

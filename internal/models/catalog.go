package models

import (
	"time"

	"github.com/google/uuid"
)

// Category описывает категорию каталога.
type Category struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Slug        string     `db:"slug" json:"slug"`
	Description *string    `db:"description" json:"description,omitempty"`
	ParentID    *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Product описывает товар каталога.
type Product struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Slug             string    `db:"slug" json:"slug"`
	Description      *string   `db:"description" json:"description,omitempty"`
	BasePrice        float64   `db:"base_price" json:"base_price"`
	CategoryID       uuid.UUID `db:"category_id" json:"category_id"`
	StockQuantity    int       `db:"stock_quantity" json:"stock_quantity"`
	GSTPercentage    float64   `db:"gst_percentage" json:"gst_percentage"`
	TransportCharges float64   `db:"transport_charges" json:"transport_charges"`
	ImageURL         *string   `db:"image_url" json:"image_url,omitempty"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	Variants []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant описывает вариант товара (фасовка, вес и т.п.).
type ProductVariant struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ProductID     uuid.UUID `db:"product_id" json:"product_id"`
	VariantName   string    `db:"variant_name" json:"variant_name"`
	VariantValue  string    `db:"variant_value" json:"variant_value"`
	PriceModifier float64   `db:"price_modifier" json:"price_modifier"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CartItem представляет позицию корзины покупателя.
type CartItem struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	ProductID uuid.UUID  `db:"product_id" json:"product_id"`
	VariantID *uuid.UUID `db:"variant_id" json:"variant_id,omitempty"`
	Quantity  int        `db:"quantity" json:"quantity"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`

	Product *Product        `json:"product,omitempty"`
	Variant *ProductVariant `json:"variant,omitempty"`
}

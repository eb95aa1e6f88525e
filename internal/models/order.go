package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы заказа.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Статусы оплаты.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Способы оплаты.
const (
	PaymentMethodOnline = "online"
	PaymentMethodCOD    = "cod"
)

// Order описывает заказ покупателя.
type Order struct {
	ID               uuid.UUID `db:"id" json:"id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	OrderNumber      string    `db:"order_number" json:"order_number"`
	AddressID        uuid.UUID `db:"address_id" json:"address_id"`
	Subtotal         float64   `db:"subtotal" json:"subtotal"`
	GSTAmount        float64   `db:"gst_amount" json:"gst_amount"`
	TransportCharges float64   `db:"transport_charges" json:"transport_charges"`
	TotalAmount      float64   `db:"total_amount" json:"total_amount"`
	PaymentMethod    string    `db:"payment_method" json:"payment_method"`
	PaymentStatus    string    `db:"payment_status" json:"payment_status"`
	OrderStatus      string    `db:"order_status" json:"order_status"`
	GatewayOrderID   *string   `db:"gateway_order_id" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string   `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	Items   []OrderItem `json:"items,omitempty"`
	Address *Address    `json:"address,omitempty"`
}

// OrderItem хранит снимок позиции корзины на момент оформления заказа.
type OrderItem struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	OrderID     uuid.UUID  `db:"order_id" json:"order_id"`
	ProductID   uuid.UUID  `db:"product_id" json:"product_id"`
	VariantID   *uuid.UUID `db:"variant_id" json:"variant_id,omitempty"`
	ProductName string     `db:"product_name" json:"product_name"`
	VariantName *string    `db:"variant_name" json:"variant_name,omitempty"`
	Quantity    int        `db:"quantity" json:"quantity"`
	UnitPrice   float64    `db:"unit_price" json:"unit_price"`
	GSTAmount   float64    `db:"gst_amount" json:"gst_amount"`
	TotalPrice  float64    `db:"total_price" json:"total_price"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// PriceBreakdown содержит расчёт стоимости заказа.
type PriceBreakdown struct {
	Subtotal  float64 `json:"subtotal"`
	GST       float64 `json:"gst"`
	Transport float64 `json:"transport"`
	Total     float64 `json:"total"`
}

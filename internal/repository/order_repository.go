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

// Ошибки заказов.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrAddressNotFound = errors.New("address not found")
)

// OrderRepository отвечает за таблицы orders, order_items и addresses.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт экземпляр репозитория.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create сохраняет заказ вместе с позициями в одной транзакции.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: begin tx %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (user_id, order_number, address_id, subtotal, gst_amount,
		                    transport_charges, total_amount, payment_method, payment_status,
		                    order_status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowxContext(ctx, query,
		order.UserID, order.OrderNumber, order.AddressID, order.Subtotal, order.GSTAmount,
		order.TransportCharges, order.TotalAmount, order.PaymentMethod, order.PaymentStatus,
		order.OrderStatus, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, variant_id, product_name, variant_name,
		                         quantity, unit_price, gst_amount, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	for i := range items {
		items[i].OrderID = order.ID
		if err := tx.QueryRowxContext(ctx, itemQuery,
			items[i].OrderID, items[i].ProductID, items[i].VariantID, items[i].ProductName,
			items[i].VariantName, items[i].Quantity, items[i].UnitPrice, items[i].GSTAmount,
			items[i].TotalPrice,
		).Scan(&items[i].ID, &items[i].CreatedAt); err != nil {
			return fmt.Errorf("order repository: create item %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("order repository: commit %w", err)
	}

	order.Items = items
	return nil
}

// GetByID возвращает заказ с позициями и адресом.
func (r *OrderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `
		SELECT id, user_id, order_number, address_id, subtotal, gst_amount, transport_charges,
		       total_amount, payment_method, payment_status, order_status,
		       gateway_order_id, gateway_payment_id, notes, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	if err := r.loadDetails(ctx, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetByGatewayOrderID возвращает заказ по идентификатору заказа платёжного шлюза.
func (r *OrderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	query := `
		SELECT id, user_id, order_number, address_id, subtotal, gst_amount, transport_charges,
		       total_amount, payment_method, payment_status, order_status,
		       gateway_order_id, gateway_payment_id, notes, created_at, updated_at
		FROM orders
		WHERE gateway_order_id = $1
	`
	if err := r.db.GetContext(ctx, &order, query, gatewayOrderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by gateway order id %w", err)
	}

	if err := r.loadDetails(ctx, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	query := `
		SELECT id, user_id, order_number, address_id, subtotal, gst_amount, transport_charges,
		       total_amount, payment_method, payment_status, order_status,
		       gateway_order_id, gateway_payment_id, notes, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &orders, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list by user %w", err)
	}

	for i := range orders {
		if err := r.loadDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// UpdateOrderStatus устанавливает статус заказа.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET order_status = $2, updated_at = NOW() WHERE id = $1
	`, orderID, status)
	if err != nil {
		return fmt.Errorf("order repository: update order status %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkPaid помечает заказ оплаченным и сохраняет идентификаторы шлюза.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayOrderID, gatewayPaymentID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, gateway_order_id = $3, gateway_payment_id = $4, updated_at = NOW()
		WHERE id = $1
	`, orderID, models.PaymentStatusPaid, gatewayOrderID, gatewayPaymentID)
	if err != nil {
		return fmt.Errorf("order repository: mark paid %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetGatewayOrderID привязывает заказ шлюза к заказу магазина.
func (r *OrderRepository) SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET gateway_order_id = $2, updated_at = NOW() WHERE id = $1
	`, orderID, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("order repository: set gateway order id %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdatePaymentStatus устанавливает статус оплаты.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1
	`, orderID, status)
	if err != nil {
		return fmt.Errorf("order repository: update payment status %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// loadDetails подгружает позиции и адрес заказа.
func (r *OrderRepository) loadDetails(ctx context.Context, order *models.Order) error {
	var items []models.OrderItem
	itemQuery := `
		SELECT id, order_id, product_id, variant_id, product_name, variant_name,
		       quantity, unit_price, gst_amount, total_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &items, itemQuery, order.ID); err != nil {
		return fmt.Errorf("order repository: load items %w", err)
	}
	order.Items = items

	var address models.Address
	addrQuery := `
		SELECT id, user_id, full_name, phone, address_line1, address_line2,
		       city, state, pincode, is_default, created_at
		FROM addresses
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &address, addrQuery, order.AddressID); err == nil {
		order.Address = &address
	}

	return nil
}

// CreateAddress сохраняет адрес доставки.
func (r *OrderRepository) CreateAddress(ctx context.Context, address *models.Address) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: begin tx %w", err)
	}
	defer tx.Rollback()

	if address.IsDefault {
		if _, err := tx.ExecContext(ctx, `
			UPDATE addresses SET is_default = FALSE WHERE user_id = $1
		`, address.UserID); err != nil {
			return fmt.Errorf("order repository: clear default address %w", err)
		}
	}

	query := `
		INSERT INTO addresses (user_id, full_name, phone, address_line1, address_line2,
		                       city, state, pincode, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	if err := tx.QueryRowxContext(ctx, query,
		address.UserID, address.FullName, address.Phone, address.AddressLine1,
		address.AddressLine2, address.City, address.State, address.Pincode, address.IsDefault,
	).Scan(&address.ID, &address.CreatedAt); err != nil {
		return fmt.Errorf("order repository: create address %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("order repository: commit %w", err)
	}
	return nil
}

// GetAddress возвращает адрес пользователя.
func (r *OrderRepository) GetAddress(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	query := `
		SELECT id, user_id, full_name, phone, address_line1, address_line2,
		       city, state, pincode, is_default, created_at
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`
	if err := r.db.GetContext(ctx, &address, query, addressID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("order repository: get address %w", err)
	}
	return &address, nil
}

// ListAddresses возвращает адреса пользователя, дефолтный первым.
func (r *OrderRepository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	query := `
		SELECT id, user_id, full_name, phone, address_line1, address_line2,
		       city, state, pincode, is_default, created_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`
	if err := r.db.SelectContext(ctx, &addresses, query, userID); err != nil {
		return nil, fmt.Errorf("order repository: list addresses %w", err)
	}
	return addresses, nil
}

// DeleteAddress удаляет адрес пользователя.
func (r *OrderRepository) DeleteAddress(ctx context.Context, addressID, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM addresses WHERE id = $1 AND user_id = $2
	`, addressID, userID)
	if err != nil {
		return fmt.Errorf("order repository: delete address %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

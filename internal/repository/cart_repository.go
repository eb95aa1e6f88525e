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

// ErrCartItemNotFound возвращается, когда позиция корзины не найдена.
var ErrCartItemNotFound = errors.New("cart item not found")

// CartRepository отвечает за таблицу cart_items.
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository создаёт экземпляр репозитория.
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Upsert добавляет позицию в корзину. Если такая пара (товар, вариант)
// уже есть у пользователя, количество суммируется.
func (r *CartRepository) Upsert(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id, variant_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		item.UserID, item.ProductID, item.VariantID, item.Quantity,
	).Scan(&item.ID, &item.Quantity, &item.CreatedAt); err != nil {
		return fmt.Errorf("cart repository: upsert %w", err)
	}
	return nil
}

// List возвращает позиции корзины пользователя.
func (r *CartRepository) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	query := `
		SELECT id, user_id, product_id, variant_id, quantity, created_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("cart repository: list %w", err)
	}
	return items, nil
}

// GetByID возвращает позицию корзины, принадлежащую пользователю.
func (r *CartRepository) GetByID(ctx context.Context, itemID, userID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	query := `
		SELECT id, user_id, product_id, variant_id, quantity, created_at
		FROM cart_items
		WHERE id = $1 AND user_id = $2
	`
	if err := r.db.GetContext(ctx, &item, query, itemID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("cart repository: get by id %w", err)
	}
	return &item, nil
}

// UpdateQuantity устанавливает количество для позиции корзины.
func (r *CartRepository) UpdateQuantity(ctx context.Context, itemID, userID uuid.UUID, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE id = $1 AND user_id = $2
	`, itemID, userID, quantity)
	if err != nil {
		return fmt.Errorf("cart repository: update quantity %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// Delete удаляет позицию корзины.
func (r *CartRepository) Delete(ctx context.Context, itemID, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND user_id = $2
	`, itemID, userID)
	if err != nil {
		return fmt.Errorf("cart repository: delete %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// Clear очищает корзину пользователя.
func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("cart repository: clear %w", err)
	}
	return nil
}

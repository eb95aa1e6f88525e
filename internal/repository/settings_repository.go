package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/storefront-backend/internal/models"
)

// SettingsRepository отвечает за таблицу settings (ключ-значение).
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository создаёт экземпляр репозитория.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// List возвращает все настройки магазина.
func (r *SettingsRepository) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	query := `SELECT key, value, updated_at FROM settings ORDER BY key`
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("settings repository: list %w", err)
	}
	return settings, nil
}

// Set сохраняет значение настройки (insert или update по ключу).
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("settings repository: set %w", err)
	}
	return nil
}

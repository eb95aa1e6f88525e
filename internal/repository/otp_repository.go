package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/storefront-backend/internal/models"
)

// ErrOTPNotFound возвращается, когда код для пары (email, code) не найден.
var ErrOTPNotFound = errors.New("otp not found")

// OTPRepository отвечает за работу с таблицей email_otps.
type OTPRepository struct {
	db *sqlx.DB
}

// NewOTPRepository создаёт экземпляр репозитория.
func NewOTPRepository(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Replace атомарно заменяет живой код для email.
// Таблица имеет UNIQUE (email), поэтому даже при конкурентной выдаче
// остаётся ровно одна запись: побеждает последний писатель.
func (r *OTPRepository) Replace(ctx context.Context, otp *models.EmailOTP) error {
	query := `
		INSERT INTO email_otps (email, code, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.ExecContext(ctx, query, otp.Email, otp.Code, otp.CreatedAt, otp.ExpiresAt); err != nil {
		return fmt.Errorf("otp repository: replace %w", err)
	}
	return nil
}

// GetByEmailAndCode возвращает запись, совпадающую и по email, и по коду.
// Отсутствие записи неотличимо от неверного кода.
func (r *OTPRepository) GetByEmailAndCode(ctx context.Context, email, code string) (*models.EmailOTP, error) {
	var otp models.EmailOTP
	query := `
		SELECT email, code, created_at, expires_at
		FROM email_otps
		WHERE email = $1 AND code = $2
	`
	if err := r.db.GetContext(ctx, &otp, query, email, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("otp repository: get by email and code %w", err)
	}

	return &otp, nil
}

// DeleteByEmail удаляет все коды для email (использование или ленивое истечение).
func (r *OTPRepository) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_otps WHERE email = $1`, email); err != nil {
		return fmt.Errorf("otp repository: delete by email %w", err)
	}
	return nil
}

// DeleteExpired удаляет записи, истёкшие на момент now. Вызывается фоновой чисткой.
func (r *OTPRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM email_otps WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("otp repository: delete expired %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

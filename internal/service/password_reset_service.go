package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/mailer"
	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/repository"
	"github.com/ignatzorin/storefront-backend/internal/validation"
)

// OTPRepository описывает зависимости сервиса от хранилища кодов.
type OTPRepository interface {
	Replace(ctx context.Context, otp *models.EmailOTP) error
	GetByEmailAndCode(ctx context.Context, email, code string) (*models.EmailOTP, error)
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PasswordResetUserRepository описывает операции с пользователями,
// нужные для сброса пароля.
type PasswordResetUserRepository interface {
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// PasswordResetService реализует восстановление пароля через одноразовый
// код, отправляемый на email.
type PasswordResetService struct {
	otps         OTPRepository
	users        PasswordResetUserRepository
	sender       mailer.Sender
	tokenManager *TokenManager
	siteName     string
	otpTTL       time.Duration
	now          func() time.Time
}

// NewPasswordResetService создаёт сервис восстановления пароля.
func NewPasswordResetService(otps OTPRepository, users PasswordResetUserRepository, sender mailer.Sender, tokenManager *TokenManager, siteName string, otpTTL time.Duration) *PasswordResetService {
	return &PasswordResetService{
		otps:         otps,
		users:        users,
		sender:       sender,
		tokenManager: tokenManager,
		siteName:     siteName,
		otpTTL:       otpTTL,
		now:          time.Now,
	}
}

// IssueResult возвращает итог выдачи кода.
type IssueResult struct {
	Email     string
	ExpiresAt time.Time
	// Code заполняется только вне production для отладки.
	Code string
}

// Issue генерирует код, сохраняет его и отправляет письмо.
// Повторный вызов для того же email атомарно заменяет предыдущий код.
func (s *PasswordResetService) Issue(ctx context.Context, email string) (*IssueResult, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("password reset: %w", err)
	}

	profile, err := s.users.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrAccountNotFound
		}
		return nil, err
	}

	code, err := generateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("password reset: не удалось сгенерировать код: %w", err)
	}

	now := s.now()
	otp := &models.EmailOTP{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpTTL),
	}

	if err := s.otps.Replace(ctx, otp); err != nil {
		return nil, err
	}

	name := ""
	if profile.FullName != nil {
		name = *profile.FullName
	}

	body, err := mailer.OTPEmail(s.siteName, name, code, otp.ExpiresAt, s.otpTTL)
	if err != nil {
		return nil, fmt.Errorf("password reset: не удалось собрать письмо: %w", err)
	}

	subject := fmt.Sprintf("Password Reset Code - %s", s.siteName)
	if err := s.sender.SendHTML(email, name, subject, body); err != nil {
		// Код уже сохранён, пользователь может запросить повтор.
		logger.Log.WithFields(map[string]interface{}{
			"email": email,
			"error": err.Error(),
		}).Error("password reset: не удалось отправить письмо с кодом")
		return nil, apperror.ErrEmailDelivery
	}

	logger.Log.WithFields(map[string]interface{}{
		"email":      email,
		"expires_at": otp.ExpiresAt,
	}).Info("password reset: код отправлен")

	return &IssueResult{
		Email:     email,
		ExpiresAt: otp.ExpiresAt,
		Code:      code,
	}, nil
}

// Verify проверяет код и выпускает короткоживущий токен сброса пароля.
// Код одноразовый: и успешная проверка, и истёкший код удаляют запись.
func (s *PasswordResetService) Verify(ctx context.Context, email, code string) (string, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return "", fmt.Errorf("password reset: %w", err)
	}

	// Формат проверяется до обращения к хранилищу
	code = validation.NormalizeOTPCode(code)
	if err := validation.ValidateOTPCode(code); err != nil {
		return "", apperror.ErrOTPInvalidFormat
	}

	otp, err := s.otps.GetByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			// Ответ не различает "код не выдавался" и "код не совпал"
			return "", apperror.ErrOTPInvalid
		}
		return "", err
	}

	if otp.Expired(s.now()) {
		if err := s.otps.DeleteByEmail(ctx, email); err != nil {
			logger.Log.WithField("email", email).Warn("password reset: не удалось удалить истёкший код")
		}
		return "", apperror.ErrOTPExpired
	}

	if err := s.otps.DeleteByEmail(ctx, email); err != nil {
		return "", err
	}

	token, err := s.tokenManager.GenerateResetToken(email)
	if err != nil {
		return "", fmt.Errorf("password reset: не удалось выпустить токен: %w", err)
	}

	logger.Log.WithField("email", email).Info("password reset: код подтверждён")

	return token, nil
}

// Reset устанавливает новый пароль по токену сброса.
func (s *PasswordResetService) Reset(ctx context.Context, email, token, newPassword string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}

	if err := s.tokenManager.ValidateResetToken(token, email); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUnauthorized, "токен сброса пароля невалиден или истёк")
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrAccountNotFound
		}
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("password reset: не удалось захешировать пароль: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(passHash)); err != nil {
		return err
	}

	logger.Log.WithField("user_id", user.ID).Info("password reset: пароль обновлён")

	return nil
}

// PurgeExpired удаляет истёкшие коды. Вызывается фоновой задачей.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.otps.DeleteExpired(ctx, s.now())
}

// generateOTPCode возвращает равномерно распределённый шестизначный код.
func generateOTPCode() (string, error) {
	// Диапазон [100000, 999999], без ведущих нулей
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

package service

import (
	"context"
	"fmt"

	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/validation"
)

// SMSGateway описывает операции SMS-шлюза.
type SMSGateway interface {
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, sessionID, code string) error
}

// SMSOTPService подтверждает номера телефонов одноразовым кодом по SMS.
// Код генерирует и хранит сам шлюз, сервис передаёт только идентификатор
// сессии проверки.
type SMSOTPService struct {
	gateway SMSGateway
}

// NewSMSOTPService создаёт сервис подтверждения телефона.
func NewSMSOTPService(gateway SMSGateway) *SMSOTPService {
	return &SMSOTPService{gateway: gateway}
}

// Send отправляет код на телефон и возвращает идентификатор сессии.
func (s *SMSOTPService) Send(ctx context.Context, phone string) (string, error) {
	phone = validation.NormalizePhone(phone)
	if err := validation.ValidatePhone(phone); err != nil {
		return "", fmt.Errorf("sms otp: %w", err)
	}

	sessionID, err := s.gateway.SendOTP(ctx, phone)
	if err != nil {
		logger.Log.WithField("error", err.Error()).Error("sms otp: не удалось отправить код")
		return "", apperror.New(apperror.ErrCodeDeliveryFailure, "не удалось отправить SMS, попробуйте позже")
	}

	return sessionID, nil
}

// Verify проверяет код по идентификатору сессии.
func (s *SMSOTPService) Verify(ctx context.Context, sessionID, code string) error {
	if sessionID == "" {
		return apperror.New(apperror.ErrCodeValidation, "отсутствует идентификатор сессии")
	}

	code = validation.NormalizeOTPCode(code)
	if err := validation.ValidateOTPCode(code); err != nil {
		return apperror.ErrOTPInvalidFormat
	}

	if err := s.gateway.VerifyOTP(ctx, sessionID, code); err != nil {
		return apperror.ErrOTPInvalid
	}

	return nil
}

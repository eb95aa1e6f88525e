package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/payment"
	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/repository"
)

// PaymentGateway описывает операции платёжного шлюза.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*payment.GatewayOrder, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, providedSignature string) bool
}

// PaymentOrderStore описывает операции с заказами, нужные платежам.
type PaymentOrderStore interface {
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayOrderID, gatewayPaymentID string) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error
}

// PaymentService связывает заказы магазина с платёжным шлюзом.
type PaymentService struct {
	gateway PaymentGateway
	orders  PaymentOrderStore
	mailing *OrderService
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(gateway PaymentGateway, orders PaymentOrderStore, mailing *OrderService) *PaymentService {
	return &PaymentService{
		gateway: gateway,
		orders:  orders,
		mailing: mailing,
	}
}

// VerifyInput содержит данные подтверждения платежа от клиента.
type VerifyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// InitiatePayment создаёт заказ в платёжном шлюзе для онлайн-оплаты.
func (s *PaymentService) InitiatePayment(ctx context.Context, userID, orderID uuid.UUID) (*payment.GatewayOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
	}

	if order.PaymentMethod != models.PaymentMethodOnline {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "для этого заказа не предусмотрена онлайн-оплата")
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, apperror.New(apperror.ErrCodeConflict, "заказ уже оплачен")
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, order.TotalAmount, "INR", order.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("payment service: не удалось создать заказ в шлюзе: %w", err)
	}

	if err := s.orders.SetGatewayOrderID(ctx, order.ID, gatewayOrder.ID); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"order_id":         order.ID,
		"gateway_order_id": gatewayOrder.ID,
		"amount":           gatewayOrder.Amount,
	}).Info("payment service: платёж инициирован")

	return gatewayOrder, nil
}

// Verify проверяет подпись платежа и помечает заказ оплаченным.
// Подпись считается как HMAC-SHA256 от "orderID|paymentID" на секрете
// шлюза. Любое расхождение отклоняет платёж.
func (s *PaymentService) Verify(ctx context.Context, in VerifyInput) (*models.Order, error) {
	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.Signature == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "отсутствуют обязательные поля платежа")
	}

	if !s.gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		logger.Log.WithFields(map[string]interface{}{
			"gateway_order_id":   in.GatewayOrderID,
			"gateway_payment_id": in.GatewayPaymentID,
		}).Warn("payment service: подпись платежа не прошла проверку")
		return nil, apperror.ErrInvalidSignature
	}

	order, err := s.orders.GetByGatewayOrderID(ctx, in.GatewayOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "заказ по этому платежу не найден")
		}
		return nil, err
	}

	// Повторное подтверждение того же платежа идемпотентно
	if order.PaymentStatus == models.PaymentStatusPaid {
		return order, nil
	}

	if err := s.orders.MarkPaid(ctx, order.ID, in.GatewayOrderID, in.GatewayPaymentID); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, models.OrderStatusConfirmed); err != nil {
		return nil, err
	}

	order.PaymentStatus = models.PaymentStatusPaid
	order.OrderStatus = models.OrderStatusConfirmed
	order.GatewayOrderID = &in.GatewayOrderID
	order.GatewayPaymentID = &in.GatewayPaymentID

	logger.Log.WithFields(map[string]interface{}{
		"order_id":           order.ID,
		"gateway_payment_id": in.GatewayPaymentID,
	}).Info("payment service: платёж подтверждён")

	if s.mailing != nil {
		s.mailing.sendConfirmationEmail(ctx, order)
	}

	return order, nil
}

// MarkFailed помечает платёж по заказу неуспешным.
func (s *PaymentService) MarkFailed(ctx context.Context, userID, orderID uuid.UUID) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
		}
		return err
	}
	if order.UserID != userID {
		return apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return apperror.New(apperror.ErrCodeConflict, "заказ уже оплачен")
	}

	return s.orders.UpdatePaymentStatus(ctx, orderID, models.PaymentStatusFailed)
}

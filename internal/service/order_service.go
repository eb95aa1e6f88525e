package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/mailer"
	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/repository"
	"github.com/ignatzorin/storefront-backend/internal/validation"
)

// OrderStore описывает зависимости сервиса заказов от хранилища.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error
	CreateAddress(ctx context.Context, address *models.Address) error
	GetAddress(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	DeleteAddress(ctx context.Context, addressID, userID uuid.UUID) error
}

// OrderCatalog описывает операции каталога, нужные при оформлении заказа.
type OrderCatalog interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error
}

// OrderCart описывает операции корзины, нужные при оформлении заказа.
type OrderCart interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// OrderNotifier описывает доступ к профилю для писем о заказе.
type OrderNotifier interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// OrderService оформляет заказы и управляет их жизненным циклом.
type OrderService struct {
	orders   OrderStore
	catalog  OrderCatalog
	cart     OrderCart
	profiles OrderNotifier
	sender   mailer.Sender
	settings *SettingsService
	now      func() time.Time
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(orders OrderStore, catalog OrderCatalog, cart OrderCart, profiles OrderNotifier, sender mailer.Sender, settings *SettingsService) *OrderService {
	return &OrderService{
		orders:   orders,
		catalog:  catalog,
		cart:     cart,
		profiles: profiles,
		sender:   sender,
		settings: settings,
		now:      time.Now,
	}
}

// CheckoutInput содержит данные оформления заказа.
type CheckoutInput struct {
	AddressID     uuid.UUID
	PaymentMethod string
	Notes         string
}

// допустимые переходы статуса заказа
var orderStatusTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

// Checkout превращает корзину пользователя в заказ.
// Позиции снимаются снимком: смена цены товара после оформления
// не влияет на уже созданный заказ.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*models.Order, error) {
	store := s.settings.Get(ctx)

	switch in.PaymentMethod {
	case models.PaymentMethodOnline:
		if !store.OnlinePaymentEnabled {
			return nil, apperror.New(apperror.ErrCodeBadRequest, "онлайн-оплата временно недоступна")
		}
	case models.PaymentMethodCOD:
		if !store.CODEnabled {
			return nil, apperror.New(apperror.ErrCodeBadRequest, "оплата при получении временно недоступна")
		}
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный способ оплаты")
	}

	address, err := s.orders.GetAddress(ctx, in.AddressID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "адрес доставки не найден")
		}
		return nil, err
	}

	cartItems, err := s.cart.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "корзина пуста")
	}

	orderItems := make([]models.OrderItem, 0, len(cartItems))
	for i := range cartItems {
		item := &cartItems[i]

		product, err := s.catalog.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, apperror.New(apperror.ErrCodeBadRequest, "товар из корзины больше не продаётся")
			}
			return nil, err
		}
		if !product.IsActive {
			return nil, apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("товар %q недоступен для заказа", product.Name))
		}
		item.Product = product

		stock := product.StockQuantity
		var variantName *string
		if item.VariantID != nil {
			variant, err := s.catalog.GetVariantByID(ctx, *item.VariantID)
			if err != nil {
				return nil, apperror.New(apperror.ErrCodeBadRequest, "вариант товара из корзины недоступен")
			}
			item.Variant = variant
			stock = variant.StockQuantity
			name := variant.VariantName + " " + variant.VariantValue
			variantName = &name
		}
		if item.Quantity > stock {
			return nil, apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("недостаточно товара %q на складе", product.Name))
		}

		unitPrice := UnitPrice(product, item.Variant)
		lineTotal := unitPrice * float64(item.Quantity)

		orderItems = append(orderItems, models.OrderItem{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: product.Name,
			VariantName: variantName,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			GSTAmount:   roundMoney(lineTotal * product.GSTPercentage / 100),
			TotalPrice:  roundMoney(lineTotal),
		})
	}

	breakdown := ComputeBreakdown(cartItems, store.DefaultTransportCharges)

	order := &models.Order{
		UserID:           userID,
		OrderNumber:      generateOrderNumber(s.now()),
		AddressID:        address.ID,
		Subtotal:         breakdown.Subtotal,
		GSTAmount:        breakdown.GST,
		TransportCharges: breakdown.Transport,
		TotalAmount:      breakdown.Total,
		PaymentMethod:    in.PaymentMethod,
		PaymentStatus:    models.PaymentStatusPending,
		OrderStatus:      models.OrderStatusPending,
	}
	if in.Notes != "" {
		order.Notes = &in.Notes
	}

	if err := s.orders.Create(ctx, order, orderItems); err != nil {
		return nil, err
	}
	order.Items = orderItems
	order.Address = address

	for _, item := range orderItems {
		if err := s.catalog.DecrementStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			logger.Log.WithFields(map[string]interface{}{
				"order_id":   order.ID,
				"product_id": item.ProductID,
				"error":      err.Error(),
			}).Warn("order service: не удалось списать остаток")
		}
	}

	if err := s.cart.Clear(ctx, userID); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		}).Warn("order service: не удалось очистить корзину")
	}

	// Для оплаты при получении заказ подтверждается сразу.
	// Онлайн-заказ подтвердится после проверки подписи платежа.
	if in.PaymentMethod == models.PaymentMethodCOD {
		if err := s.orders.UpdateOrderStatus(ctx, order.ID, models.OrderStatusConfirmed); err != nil {
			return nil, err
		}
		order.OrderStatus = models.OrderStatusConfirmed
		s.sendConfirmationEmail(ctx, order)
	}

	logger.Log.WithFields(map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount,
		"method":       order.PaymentMethod,
	}).Info("order service: заказ оформлен")

	return order, nil
}

// Get возвращает заказ пользователя.
func (s *OrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
		}
		return nil, err
	}
	if order.UserID != userID {
		// Чужой заказ неотличим от несуществующего
		return nil, apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
	}
	return order, nil
}

// List возвращает страницу заказов пользователя.
func (s *OrderService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// Cancel отменяет заказ покупателя, пока он не отправлен.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(order.OrderStatus, models.OrderStatusCancelled) {
		return nil, apperror.New(apperror.ErrCodeConflict, "заказ уже нельзя отменить")
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
		return nil, err
	}

	oldStatus := order.OrderStatus
	order.OrderStatus = models.OrderStatusCancelled
	s.sendStatusEmail(ctx, order, oldStatus, models.OrderStatusCancelled)

	return order, nil
}

// UpdateStatus меняет статус заказа. Только для администратора.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
		}
		return nil, err
	}

	if !transitionAllowed(order.OrderStatus, newStatus) {
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("переход статуса %s -> %s недопустим", order.OrderStatus, newStatus))
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return nil, err
	}

	oldStatus := order.OrderStatus
	order.OrderStatus = newStatus
	s.sendStatusEmail(ctx, order, oldStatus, newStatus)

	return order, nil
}

// CreateAddress сохраняет адрес доставки.
func (s *OrderService) CreateAddress(ctx context.Context, address *models.Address) error {
	address.Phone = validation.NormalizePhone(address.Phone)

	if err := validation.ValidateAddress(address.FullName, address.Phone, address.AddressLine1, address.City, address.State, address.Pincode); err != nil {
		return fmt.Errorf("order service: %w", err)
	}

	return s.orders.CreateAddress(ctx, address)
}

// ListAddresses возвращает адреса пользователя.
func (s *OrderService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.orders.ListAddresses(ctx, userID)
}

// DeleteAddress удаляет адрес пользователя.
func (s *OrderService) DeleteAddress(ctx context.Context, addressID, userID uuid.UUID) error {
	if err := s.orders.DeleteAddress(ctx, addressID, userID); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "адрес не найден")
		}
		return err
	}
	return nil
}

// sendConfirmationEmail отправляет письмо о подтверждении заказа.
// Ошибка отправки не прерывает оформление.
func (s *OrderService) sendConfirmationEmail(ctx context.Context, order *models.Order) {
	store := s.settings.Get(ctx)

	profile, err := s.profiles.GetProfile(ctx, order.UserID)
	if err != nil {
		logger.Log.WithField("order_id", order.ID).Warn("order service: профиль для письма не найден")
		return
	}

	name := ""
	if profile.FullName != nil {
		name = *profile.FullName
	}

	body, err := mailer.OrderConfirmationEmail(store.SiteName, name, order)
	if err != nil {
		logger.Log.WithField("order_id", order.ID).Warn("order service: не удалось собрать письмо о заказе")
		return
	}

	subject := fmt.Sprintf("Order Confirmed - %s", order.OrderNumber)
	if err := s.sender.SendHTML(profile.Email, name, subject, body); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		}).Warn("order service: не удалось отправить письмо о заказе")
	}
}

// sendStatusEmail отправляет письмо о смене статуса заказа.
func (s *OrderService) sendStatusEmail(ctx context.Context, order *models.Order, oldStatus, newStatus string) {
	store := s.settings.Get(ctx)

	profile, err := s.profiles.GetProfile(ctx, order.UserID)
	if err != nil {
		return
	}

	name := ""
	if profile.FullName != nil {
		name = *profile.FullName
	}

	body, err := mailer.StatusChangeEmail(store.SiteName, name, order.OrderNumber, oldStatus, newStatus)
	if err != nil {
		return
	}

	subject := fmt.Sprintf("Order %s - %s", newStatus, order.OrderNumber)
	if err := s.sender.SendHTML(profile.Email, name, subject, body); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		}).Warn("order service: не удалось отправить письмо о статусе")
	}
}

// transitionAllowed проверяет допустимость перехода статуса.
func transitionAllowed(from, to string) bool {
	for _, allowed := range orderStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// generateOrderNumber формирует человекочитаемый номер заказа
// вида WOW-20250131-4821.
func generateOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	suffix := int64(1000)
	if err == nil {
		suffix += n.Int64()
	}
	return fmt.Sprintf("WOW-%s-%04d", now.Format("20060102"), suffix)
}

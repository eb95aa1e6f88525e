package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/repository"
)

// mockOrderStore реализует OrderStore для тестов.
type mockOrderStore struct {
	orders    map[uuid.UUID]*models.Order
	items     map[uuid.UUID][]models.OrderItem
	addresses map[uuid.UUID]*models.Address
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{
		orders:    make(map[uuid.UUID]*models.Order),
		items:     make(map[uuid.UUID][]models.OrderItem),
		addresses: make(map[uuid.UUID]*models.Address),
	}
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	m.orders[order.ID] = order
	m.items[order.ID] = items
	return nil
}

func (m *mockOrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if order, ok := m.orders[orderID]; ok {
		copied := *order
		copied.Items = m.items[orderID]
		return &copied, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	if order, ok := m.orders[orderID]; ok {
		order.OrderStatus = status
		return nil
	}
	return repository.ErrOrderNotFound
}

func (m *mockOrderStore) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	if order, ok := m.orders[orderID]; ok {
		order.PaymentStatus = status
		return nil
	}
	return repository.ErrOrderNotFound
}

func (m *mockOrderStore) CreateAddress(ctx context.Context, address *models.Address) error {
	address.ID = uuid.New()
	m.addresses[address.ID] = address
	return nil
}

func (m *mockOrderStore) GetAddress(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error) {
	if address, ok := m.addresses[addressID]; ok && address.UserID == userID {
		return address, nil
	}
	return nil, repository.ErrAddressNotFound
}

func (m *mockOrderStore) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	for _, address := range m.addresses {
		if address.UserID == userID {
			addresses = append(addresses, *address)
		}
	}
	return addresses, nil
}

func (m *mockOrderStore) DeleteAddress(ctx context.Context, addressID, userID uuid.UUID) error {
	if address, ok := m.addresses[addressID]; ok && address.UserID == userID {
		delete(m.addresses, addressID)
		return nil
	}
	return repository.ErrAddressNotFound
}

// mockOrderCatalog реализует OrderCatalog для тестов.
type mockOrderCatalog struct {
	products    map[uuid.UUID]*models.Product
	variants    map[uuid.UUID]*models.ProductVariant
	decremented map[uuid.UUID]int
}

func newMockOrderCatalog() *mockOrderCatalog {
	return &mockOrderCatalog{
		products:    make(map[uuid.UUID]*models.Product),
		variants:    make(map[uuid.UUID]*models.ProductVariant),
		decremented: make(map[uuid.UUID]int),
	}
}

func (m *mockOrderCatalog) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := m.products[id]; ok {
		return product, nil
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockOrderCatalog) GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	if variant, ok := m.variants[id]; ok {
		return variant, nil
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockOrderCatalog) DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	m.decremented[productID] += quantity
	return nil
}

// mockOrderCart реализует OrderCart для тестов.
type mockOrderCart struct {
	items   []models.CartItem
	cleared bool
}

func (m *mockOrderCart) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return m.items, nil
}

func (m *mockOrderCart) Clear(ctx context.Context, userID uuid.UUID) error {
	m.cleared = true
	return nil
}

// mockOrderNotifier реализует OrderNotifier для тестов.
type mockOrderNotifier struct {
	profiles map[uuid.UUID]*models.Profile
}

func (m *mockOrderNotifier) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if profile, ok := m.profiles[userID]; ok {
		return profile, nil
	}
	return nil, repository.ErrUserNotFound
}

type orderFixture struct {
	svc     *OrderService
	store   *mockOrderStore
	catalog *mockOrderCatalog
	cart    *mockOrderCart
	sender  *fakeSender
	userID  uuid.UUID
	address *models.Address
	product *models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	store := newMockOrderStore()
	catalog := newMockOrderCatalog()
	cart := &mockOrderCart{}
	sender := &fakeSender{}
	userID := uuid.New()

	notifier := &mockOrderNotifier{profiles: map[uuid.UUID]*models.Profile{
		userID: {UserID: userID, Email: "buyer@example.com"},
	}}

	settingsStore := newMockSettingsStore()
	settingsStore.rows[SettingDefaultTransportCharges] = "50"
	settings := NewSettingsService(settingsStore)

	svc := NewOrderService(store, catalog, cart, notifier, sender, settings)

	address := &models.Address{
		ID:           uuid.New(),
		UserID:       userID,
		FullName:     "Test Buyer",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
	}
	store.addresses[address.ID] = address

	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Green Tea",
		BasePrice:     250,
		GSTPercentage: 18,
		StockQuantity: 10,
		IsActive:      true,
	}
	catalog.products[product.ID] = product

	cart.items = []models.CartItem{{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  2,
	}}

	return &orderFixture{
		svc:     svc,
		store:   store,
		catalog: catalog,
		cart:    cart,
		sender:  sender,
		userID:  userID,
		address: address,
		product: product,
	}
}

func TestOrderService_CheckoutCOD(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout вернул ошибку: %v", err)
	}

	if matched, _ := regexp.MatchString(`^WOW-\d{8}-\d{4}$`, order.OrderNumber); !matched {
		t.Fatalf("неожиданный формат номера заказа: %q", order.OrderNumber)
	}

	if order.Subtotal != 500 || order.GSTAmount != 90 || order.TransportCharges != 50 || order.TotalAmount != 640 {
		t.Fatalf("неверный расчёт стоимости: %+v", order)
	}

	// COD заказ подтверждается сразу
	if order.OrderStatus != models.OrderStatusConfirmed {
		t.Fatalf("ожидался статус confirmed, получили %q", order.OrderStatus)
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("оплата при получении остаётся pending, получили %q", order.PaymentStatus)
	}

	if !f.cart.cleared {
		t.Fatalf("корзина должна очищаться после оформления")
	}
	if f.catalog.decremented[f.product.ID] != 2 {
		t.Fatalf("остаток должен списываться, списано %d", f.catalog.decremented[f.product.ID])
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("ожидалось письмо о подтверждении, отправлено %d", len(f.sender.sent))
	}

	// Позиции снимаются снимком с ценой на момент оформления
	items := f.store.items[order.ID]
	if len(items) != 1 || items[0].UnitPrice != 250 || items[0].ProductName != "Green Tea" {
		t.Fatalf("неверный снимок позиций: %+v", items)
	}
}

func TestOrderService_CheckoutOnlineStaysPending(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Checkout(context.Background(), f.userID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodOnline,
	})
	if err != nil {
		t.Fatalf("checkout вернул ошибку: %v", err)
	}

	// Онлайн-заказ ждёт подтверждения платежа
	if order.OrderStatus != models.OrderStatusPending {
		t.Fatalf("онлайн-заказ должен оставаться pending, получили %q", order.OrderStatus)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("письмо уходит только после оплаты")
	}
}

func TestOrderService_CheckoutEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	f.cart.items = nil

	if _, err := f.svc.Checkout(context.Background(), f.userID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodCOD,
	}); err == nil {
		t.Fatalf("оформление пустой корзины должно отклоняться")
	}
}

func TestOrderService_CheckoutInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	f.product.StockQuantity = 1

	if _, err := f.svc.Checkout(context.Background(), f.userID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodCOD,
	}); err == nil {
		t.Fatalf("заказ сверх остатка должен отклоняться")
	}
}

func TestOrderService_CheckoutForeignAddress(t *testing.T) {
	f := newOrderFixture(t)

	if _, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodCOD,
	}); err == nil {
		t.Fatalf("чужой адрес должен отклоняться")
	}
}

func TestOrderService_StatusTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout вернул ошибку: %v", err)
	}

	// confirmed -> processing -> shipped -> delivered
	for _, status := range []string{models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered} {
		if _, err := f.svc.UpdateStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("переход в %q вернул ошибку: %v", status, err)
		}
	}

	// Доставленный заказ дальше не двигается
	if _, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled); err == nil {
		t.Fatalf("отмена доставленного заказа должна отклоняться")
	}
}

func TestOrderService_CancelAfterShipment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout вернул ошибку: %v", err)
	}

	if _, err := f.svc.Cancel(ctx, f.userID, order.ID); err != nil {
		t.Fatalf("отмена подтверждённого заказа должна проходить: %v", err)
	}

	// Новый заказ доводим до отправки и пробуем отменить
	f.cart.items = []models.CartItem{{ID: uuid.New(), UserID: f.userID, ProductID: f.product.ID, Quantity: 1}}
	f.cart.cleared = false
	order, err = f.svc.Checkout(ctx, f.userID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout вернул ошибку: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusProcessing); err != nil {
		t.Fatalf("переход вернул ошибку: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusShipped); err != nil {
		t.Fatalf("переход вернул ошибку: %v", err)
	}

	if _, err := f.svc.Cancel(ctx, f.userID, order.ID); err == nil {
		t.Fatalf("отмена отправленного заказа должна отклоняться")
	}
}

func TestOrderService_GetForeignOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout вернул ошибку: %v", err)
	}

	// Чужой заказ неотличим от несуществующего
	if _, err := f.svc.Get(ctx, uuid.New(), order.ID); err == nil {
		t.Fatalf("чужой заказ не должен быть доступен")
	}
}

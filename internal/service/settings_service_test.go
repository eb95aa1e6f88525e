package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignatzorin/storefront-backend/internal/models"
)

// mockSettingsStore реализует SettingsStore для тестов.
type mockSettingsStore struct {
	rows    map[string]string
	listed  int
	failing bool
}

func newMockSettingsStore() *mockSettingsStore {
	return &mockSettingsStore{rows: make(map[string]string)}
}

func (m *mockSettingsStore) List(ctx context.Context) ([]models.Setting, error) {
	m.listed++
	if m.failing {
		return nil, errors.New("connection refused")
	}
	var settings []models.Setting
	for key, value := range m.rows {
		settings = append(settings, models.Setting{Key: key, Value: value})
	}
	return settings, nil
}

func (m *mockSettingsStore) Set(ctx context.Context, key, value string) error {
	m.rows[key] = value
	return nil
}

func TestSettingsService_CacheTTL(t *testing.T) {
	store := newMockSettingsStore()
	store.rows[SettingSiteName] = "Test Store"
	store.rows[SettingGSTPercentage] = "12"

	svc := NewSettingsService(store)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	ctx := context.Background()
	first := svc.Get(ctx)
	if first.SiteName != "Test Store" || first.GSTPercentage != 12 {
		t.Fatalf("настройки должны читаться из хранилища: %+v", first)
	}

	// Свежий кэш: повторный Get не ходит в базу
	svc.Get(ctx)
	if store.listed != 1 {
		t.Fatalf("ожидалось одно обращение к базе, получили %d", store.listed)
	}

	// Спустя TTL кэш протухает
	svc.now = func() time.Time { return base.Add(settingsCacheTTL + time.Second) }
	svc.Get(ctx)
	if store.listed != 2 {
		t.Fatalf("после истечения TTL ожидалось новое обращение, всего %d", store.listed)
	}
}

func TestSettingsService_Invalidate(t *testing.T) {
	store := newMockSettingsStore()
	store.rows[SettingSiteName] = "Before"
	svc := NewSettingsService(store)
	ctx := context.Background()

	if got := svc.Get(ctx); got.SiteName != "Before" {
		t.Fatalf("ожидалось Before, получили %q", got.SiteName)
	}

	if err := svc.Update(ctx, map[string]string{SettingSiteName: "After"}); err != nil {
		t.Fatalf("update вернул ошибку: %v", err)
	}

	// Update сбрасывает кэш, следующий Get видит новое значение
	if got := svc.Get(ctx); got.SiteName != "After" {
		t.Fatalf("после обновления ожидалось After, получили %q", got.SiteName)
	}
}

func TestSettingsService_DefaultsOnFailure(t *testing.T) {
	store := newMockSettingsStore()
	store.failing = true
	svc := NewSettingsService(store)

	got := svc.Get(context.Background())
	if got.SiteName != "WOW! Organics" {
		t.Fatalf("при сбое базы должны возвращаться дефолты, получили %q", got.SiteName)
	}
	if !got.CODEnabled || !got.OnlinePaymentEnabled {
		t.Fatalf("дефолтные способы оплаты должны быть включены")
	}
}

func TestSettingsService_IgnoresMalformedValues(t *testing.T) {
	store := newMockSettingsStore()
	store.rows[SettingGSTPercentage] = "not-a-number"
	store.rows[SettingCODEnabled] = "maybe"
	svc := NewSettingsService(store)

	got := svc.Get(context.Background())
	if got.GSTPercentage != 18 {
		t.Fatalf("некорректная ставка должна заменяться дефолтом, получили %v", got.GSTPercentage)
	}
	if !got.CODEnabled {
		t.Fatalf("некорректный флаг должен заменяться дефолтом")
	}
}

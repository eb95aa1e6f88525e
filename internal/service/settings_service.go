package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/models"
)

// Ключи таблицы настроек.
const (
	SettingSiteName                = "site_name"
	SettingSiteEmail               = "site_email"
	SettingSitePhone               = "site_phone"
	SettingGSTPercentage           = "gst_percentage"
	SettingDefaultTransportCharges = "default_transport_charges"
	SettingOnlinePaymentEnabled    = "online_payment_enabled"
	SettingCODEnabled              = "cod_enabled"
)

// settingsCacheTTL ограничивает частоту обращений к базе за настройками.
const settingsCacheTTL = 5 * time.Minute

// SettingsStore описывает зависимости сервиса настроек от хранилища.
type SettingsStore interface {
	List(ctx context.Context) ([]models.Setting, error)
	Set(ctx context.Context, key, value string) error
}

// SettingsService отдаёт настройки магазина через кэш с TTL.
// Кэш живёт внутри сервиса, а не в глобальном состоянии.
type SettingsService struct {
	repo SettingsStore
	now  func() time.Time

	mu        sync.RWMutex
	cached    *models.StoreSettings
	fetchedAt time.Time
}

// NewSettingsService создаёт сервис настроек.
func NewSettingsService(repo SettingsStore) *SettingsService {
	return &SettingsService{
		repo: repo,
		now:  time.Now,
	}
}

// Get возвращает снимок настроек. Свежий кэш отдаётся без похода в базу,
// при ошибке базы возвращаются дефолты.
func (s *SettingsService) Get(ctx context.Context) *models.StoreSettings {
	s.mu.RLock()
	if s.cached != nil && s.now().Sub(s.fetchedAt) < settingsCacheTTL {
		snapshot := *s.cached
		s.mu.RUnlock()
		return &snapshot
	}
	s.mu.RUnlock()

	rows, err := s.repo.List(ctx)
	if err != nil {
		logger.Log.WithField("error", err.Error()).Warn("settings service: не удалось загрузить настройки, используем дефолты")
		return defaultSettings()
	}

	settings := defaultSettings()
	for _, row := range rows {
		applySetting(settings, row.Key, row.Value)
	}

	s.mu.Lock()
	s.cached = settings
	s.fetchedAt = s.now()
	s.mu.Unlock()

	snapshot := *settings
	return &snapshot
}

// Update записывает настройки и сбрасывает кэш.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if err := s.repo.Set(ctx, key, value); err != nil {
			return err
		}
	}

	s.Invalidate()
	return nil
}

// Invalidate сбрасывает кэш. Следующий Get пойдёт в базу.
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

// defaultSettings возвращает настройки магазина по умолчанию.
func defaultSettings() *models.StoreSettings {
	return &models.StoreSettings{
		SiteName:                "WOW! Organics",
		SiteEmail:               "info@woworganics.com",
		SitePhone:               "",
		GSTPercentage:           18,
		DefaultTransportCharges: 0,
		OnlinePaymentEnabled:    true,
		CODEnabled:              true,
	}
}

// applySetting переносит строковое значение из таблицы в типизированный снимок.
// Некорректные значения игнорируются, остаётся дефолт.
func applySetting(settings *models.StoreSettings, key, value string) {
	switch key {
	case SettingSiteName:
		settings.SiteName = value
	case SettingSiteEmail:
		settings.SiteEmail = value
	case SettingSitePhone:
		settings.SitePhone = value
	case SettingGSTPercentage:
		if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 0 {
			settings.GSTPercentage = v
		}
	case SettingDefaultTransportCharges:
		if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 0 {
			settings.DefaultTransportCharges = v
		}
	case SettingOnlinePaymentEnabled:
		if v, err := strconv.ParseBool(value); err == nil {
			settings.OnlinePaymentEnabled = v
		}
	case SettingCODEnabled:
		if v, err := strconv.ParseBool(value); err == nil {
			settings.CODEnabled = v
		}
	}
}

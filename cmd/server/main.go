package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/storefront-backend/internal/config"
	"github.com/ignatzorin/storefront-backend/internal/db"
	httpHandlers "github.com/ignatzorin/storefront-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/storefront-backend/internal/http/router"
	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/mailer"
	"github.com/ignatzorin/storefront-backend/internal/payment"
	"github.com/ignatzorin/storefront-backend/internal/repository"
	"github.com/ignatzorin/storefront-backend/internal/service"
	"github.com/ignatzorin/storefront-backend/internal/sms"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.ResetTokenTTL)

	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender, err = mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
		if err != nil {
			log.Fatalf("main: не удалось настроить SMTP: %v", err)
		}
	} else {
		if cfg.IsProduction() {
			log.Fatalf("main: SMTP_HOST обязателен в production")
		}
		sender = mailer.NewLogSender()
	}

	gateway := payment.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret)
	smsGateway := sms.NewClient(cfg.SMSBaseURL, cfg.SMSAPIKey)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	otpRepo := repository.NewOTPRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	cartRepo := repository.NewCartRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)

	// Сервисы.
	settingsService := service.NewSettingsService(settingsRepo)
	authService := service.NewAuthService(userRepo, tokenManager)
	catalogService := service.NewCatalogService(catalogRepo)
	cartService := service.NewCartService(cartRepo, catalogRepo)
	orderService := service.NewOrderService(orderRepo, catalogRepo, cartRepo, userRepo, sender, settingsService)
	paymentService := service.NewPaymentService(gateway, orderRepo, orderService)
	smsOTPService := service.NewSMSOTPService(smsGateway)

	siteName := settingsService.Get(ctx).SiteName
	resetService := service.NewPasswordResetService(otpRepo, userRepo, sender, tokenManager, siteName, cfg.OTPTTL)

	// Фоновая чистка истёкших кодов восстановления.
	go purgeExpiredOTPs(ctx, resetService)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	passwordResetHandler := httpHandlers.NewPasswordResetHandler(resetService, !cfg.IsProduction())
	profileHandler := httpHandlers.NewProfileHandler(authService)
	catalogHandler := httpHandlers.NewCatalogHandler(catalogService)
	cartHandler := httpHandlers.NewCartHandler(cartService, settingsService)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	smsOTPHandler := httpHandlers.NewSMSOTPHandler(smsOTPService)
	settingsHandler := httpHandlers.NewSettingsHandler(settingsService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, passwordResetHandler, profileHandler, catalogHandler, cartHandler, orderHandler, paymentHandler, smsOTPHandler, settingsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// purgeExpiredOTPs периодически удаляет истёкшие коды восстановления.
func purgeExpiredOTPs(ctx context.Context, reset *service.PasswordResetService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := reset.PurgeExpired(ctx)
			if err != nil {
				logger.Log.WithField("error", err.Error()).Warn("main: не удалось удалить истёкшие коды")
				continue
			}
			if deleted > 0 {
				logger.Log.WithField("deleted", deleted).Debug("main: истёкшие коды удалены")
			}
		}
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}

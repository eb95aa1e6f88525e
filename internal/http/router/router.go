package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/storefront-backend/internal/config"
	"github.com/ignatzorin/storefront-backend/internal/http/handlers"
	"github.com/ignatzorin/storefront-backend/internal/http/middleware"
	"github.com/ignatzorin/storefront-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	passwordResetHandler *handlers.PasswordResetHandler,
	profileHandler *handlers.ProfileHandler,
	catalogHandler *handlers.CatalogHandler,
	cartHandler *handlers.CartHandler,
	orderHandler *handlers.OrderHandler,
	paymentHandler *handlers.PaymentHandler,
	smsOTPHandler *handlers.SMSOTPHandler,
	settingsHandler *handlers.SettingsHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Аутентификация и восстановление пароля под жёстким rate limit
	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/check-email", authHandler.CheckEmail)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/forgot-password", passwordResetHandler.Forgot)
		authGroup.POST("/verify-otp", passwordResetHandler.VerifyOTP)
		authGroup.POST("/reset-password", passwordResetHandler.Reset)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/sessions", authHandler.ListSessions)
		protectedAuth.DELETE("/sessions/:id", middleware.UUIDValidator("id"), authHandler.DeleteSession)
	}

	// SMS подтверждение телефона, тоже под rate limit
	otpGroup := api.Group("/otp")
	otpGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		otpGroup.POST("/send", smsOTPHandler.Send)
		otpGroup.POST("/verify", smsOTPHandler.Verify)
	}

	// Каталог и настройки магазина (публичные)
	api.GET("/categories", catalogHandler.ListCategories)
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/products/:slug", catalogHandler.GetProduct)
	api.GET("/settings", settingsHandler.Get)

	// Подтверждение платежа приходит от клиента после оплаты в шлюзе,
	// его легитимность гарантирует подпись, а не сессия
	api.POST("/payments/verify", paymentHandler.Verify)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.Get)
		protected.PUT("/profile", profileHandler.Update)

		protected.GET("/cart", cartHandler.Get)
		protected.DELETE("/cart", cartHandler.Clear)
		protected.POST("/cart/items", cartHandler.Add)
		protected.PUT("/cart/items/:id", middleware.UUIDValidator("id"), cartHandler.UpdateQuantity)
		protected.DELETE("/cart/items/:id", middleware.UUIDValidator("id"), cartHandler.Remove)

		protected.GET("/addresses", orderHandler.ListAddresses)
		protected.POST("/addresses", orderHandler.CreateAddress)
		protected.DELETE("/addresses/:id", middleware.UUIDValidator("id"), orderHandler.DeleteAddress)

		protected.POST("/orders/checkout", orderHandler.Checkout)
		protected.GET("/orders", orderHandler.List)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.Cancel)

		protected.POST("/payments/initiate", paymentHandler.Initiate)
		protected.POST("/payments/fail", paymentHandler.Fail)
	}

	// Администрирование
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.AdminOnly())
	{
		admin.POST("/categories", catalogHandler.CreateCategory)
		admin.POST("/products", catalogHandler.CreateProduct)
		admin.PUT("/products/:id", middleware.UUIDValidator("id"), catalogHandler.UpdateProduct)
		admin.PUT("/orders/:id/status", middleware.UUIDValidator("id"), orderHandler.UpdateStatus)
		admin.PUT("/settings", settingsHandler.Update)
	}

	return r
}

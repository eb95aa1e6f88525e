package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/repository"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Ошибки с кодом отдаются со своим HTTP статусом, внутренние маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		var appErr *apperror.AppError
		if errors.As(err.Err, &appErr) {
			c.JSON(appErr.HTTPStatus, gin.H{
				"error": appErr.Message,
				"code":  appErr.Code,
			})
			return
		}

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		switch {
		case errors.Is(err.Err, repository.ErrUserNotFound):
			statusCode = http.StatusNotFound
			message = "пользователь не найден"
		case errors.Is(err.Err, repository.ErrOrderNotFound):
			statusCode = http.StatusNotFound
			message = "заказ не найден"
		case errors.Is(err.Err, repository.ErrProductNotFound):
			statusCode = http.StatusNotFound
			message = "товар не найден"
		default:
			if errStr := err.Error(); errStr != "" && !containsInternalKeywords(errStr) {
				message = errStr
				if contains(errStr, "неверный") || contains(errStr, "невалид") || contains(errStr, "должен") {
					statusCode = http.StatusBadRequest
				}
			}
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

package mailer

import (
	"github.com/ignatzorin/storefront-backend/internal/logger"
)

// LogSender пишет письма в лог вместо отправки.
// Используется в development, когда SMTP не настроен.
type LogSender struct{}

// NewLogSender создаёт заглушку отправителя.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// SendHTML логирует письмо и сообщает об успехе.
func (s *LogSender) SendHTML(to, toName, subject, htmlBody string) error {
	logger.Log.WithFields(map[string]interface{}{
		"to":      to,
		"subject": subject,
		"size":    len(htmlBody),
	}).Info("mailer: письмо не отправлено, SMTP не настроен")
	return nil
}

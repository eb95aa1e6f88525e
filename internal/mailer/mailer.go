package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender описывает отправку транзакционных писем.
// Вынесен в интерфейс, чтобы сервисы можно было тестировать без SMTP.
type Sender interface {
	SendHTML(to, toName, subject, htmlBody string) error
}

// Mailer отправляет письма через SMTP.
type Mailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// Config хранит параметры SMTP подключения.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// New создаёт Mailer с заданной конфигурацией.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mailer: SMTP_HOST не задан")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("mailer: SMTP_PORT не задан")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mailer: SMTP_FROM не задан")
	}

	return &Mailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}, nil
}

// SendHTML отправляет HTML письмо одному получателю.
func (m *Mailer) SendHTML(to, toName, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetAddressHeader("To", to, toName)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer: не удалось отправить письмо: %w", err)
	}

	return nil
}

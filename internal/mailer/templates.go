package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/ignatzorin/storefront-backend/internal/models"
)

// Шаблоны писем собираются через html/template: значения экранируются автоматически.
var (
	otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9fafb;">
  <div style="background: linear-gradient(135deg, #10b981 0%, #059669 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0; font-size: 28px;">{{.SiteName}}</h1>
    <p style="margin: 10px 0 0; font-size: 18px;">Password Reset Request</p>
  </div>
  <div style="background: white; padding: 30px; border-radius: 0 0 10px 10px;">
    <p style="font-size: 16px; margin-top: 0;">Hello {{.Name}},</p>
    <p>We received a request to reset your password. Use the OTP below to proceed:</p>
    <div style="background: #f0fdf4; padding: 30px; border-radius: 8px; margin: 30px 0; text-align: center; border: 2px dashed #10b981;">
      <p style="margin: 0 0 10px; color: #059669; font-size: 14px; font-weight: 600; text-transform: uppercase;">Your OTP Code</p>
      <h1 style="margin: 0; color: #10b981; font-size: 48px; letter-spacing: 8px;">{{.Code}}</h1>
    </div>
    <div style="background: #fef3c7; padding: 15px; border-radius: 8px; border-left: 4px solid #f59e0b; margin: 20px 0;">
      <p style="margin: 0; font-size: 14px;"><strong>Valid for {{.TTLMinutes}} minutes</strong></p>
      <p style="margin: 5px 0 0; font-size: 14px;">This OTP will expire at {{.ExpiresAt}}</p>
    </div>
    <div style="background: #fee2e2; padding: 15px; border-radius: 8px; border-left: 4px solid #ef4444; margin: 20px 0;">
      <p style="margin: 0; font-size: 14px;"><strong>Security Notice:</strong></p>
      <p style="margin: 5px 0 0; font-size: 14px;">If you didn't request this password reset, please ignore this email or contact our support team.</p>
    </div>
    <p style="margin-top: 30px; font-size: 14px; color: #6b7280;">Best regards,<br>The {{.SiteName}} Team</p>
  </div>
</body>
</html>`))

	orderConfirmationTemplate = template.Must(template.New("order_confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #10b981;">{{.SiteName}}</h1>
  <h2>Thank you for your order!</h2>
  <p>Hello {{.Name}}, your order <strong>{{.OrderNumber}}</strong> has been placed.</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr style="background: #f0fdf4;">
      <th style="text-align: left; padding: 8px;">Item</th>
      <th style="text-align: right; padding: 8px;">Qty</th>
      <th style="text-align: right; padding: 8px;">Price</th>
    </tr>
    {{range .Items}}
    <tr>
      <td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.ProductName}}{{if .VariantName}} ({{.VariantName}}){{end}}</td>
      <td style="text-align: right; padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Quantity}}</td>
      <td style="text-align: right; padding: 8px; border-bottom: 1px solid #e5e7eb;">&#8377;{{printf "%.2f" .TotalPrice}}</td>
    </tr>
    {{end}}
  </table>
  <p style="text-align: right; margin: 20px 0;">
    Subtotal: &#8377;{{printf "%.2f" .Subtotal}}<br>
    GST: &#8377;{{printf "%.2f" .GSTAmount}}<br>
    Transport: &#8377;{{printf "%.2f" .TransportCharges}}<br>
    <strong>Total: &#8377;{{printf "%.2f" .TotalAmount}}</strong>
  </p>
  <p style="font-size: 14px; color: #6b7280;">Best regards,<br>The {{.SiteName}} Team</p>
</body>
</html>`))

	statusChangeTemplate = template.Must(template.New("status_change").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #10b981;">{{.SiteName}}</h1>
  <p>Hello {{.Name}},</p>
  <p>The status of your order <strong>{{.OrderNumber}}</strong> has changed:</p>
  <p style="font-size: 18px; text-align: center; margin: 30px 0;">
    <span style="color: #6b7280;">{{.OldStatus}}</span> &rarr; <strong style="color: #10b981;">{{.NewStatus}}</strong>
  </p>
  <p style="font-size: 14px; color: #6b7280;">Best regards,<br>The {{.SiteName}} Team</p>
</body>
</html>`))
)

// OTPEmail собирает письмо с одноразовым кодом сброса пароля.
func OTPEmail(siteName, name, code string, expiresAt time.Time, ttl time.Duration) (string, error) {
	if name == "" {
		name = "there"
	}

	data := struct {
		SiteName   string
		Name       string
		Code       string
		TTLMinutes int
		ExpiresAt  string
	}{
		SiteName:   siteName,
		Name:       name,
		Code:       code,
		TTLMinutes: int(ttl.Minutes()),
		ExpiresAt:  expiresAt.Format("15:04"),
	}

	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: otp template %w", err)
	}
	return buf.String(), nil
}

// OrderConfirmationEmail собирает письмо-подтверждение заказа.
func OrderConfirmationEmail(siteName, name string, order *models.Order) (string, error) {
	if name == "" {
		name = "there"
	}

	data := struct {
		SiteName         string
		Name             string
		OrderNumber      string
		Items            []models.OrderItem
		Subtotal         float64
		GSTAmount        float64
		TransportCharges float64
		TotalAmount      float64
	}{
		SiteName:         siteName,
		Name:             name,
		OrderNumber:      order.OrderNumber,
		Items:            order.Items,
		Subtotal:         order.Subtotal,
		GSTAmount:        order.GSTAmount,
		TransportCharges: order.TransportCharges,
		TotalAmount:      order.TotalAmount,
	}

	var buf bytes.Buffer
	if err := orderConfirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: order confirmation template %w", err)
	}
	return buf.String(), nil
}

// StatusChangeEmail собирает письмо о смене статуса заказа.
func StatusChangeEmail(siteName, name, orderNumber, oldStatus, newStatus string) (string, error) {
	if name == "" {
		name = "there"
	}

	data := struct {
		SiteName    string
		Name        string
		OrderNumber string
		OldStatus   string
		NewStatus   string
	}{siteName, name, orderNumber, oldStatus, newStatus}

	var buf bytes.Buffer
	if err := statusChangeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: status change template %w", err)
	}
	return buf.String(), nil
}

package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Client работает с Razorpay-совместимым платёжным шлюзом:
// создание заказов через REST API и проверка подписи callback'ов.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента.
func NewClient(baseURL, keyID, keySecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GatewayOrder описывает заказ, созданный на стороне шлюза.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder создаёт заказ на стороне шлюза.
// Сумма передаётся в рупиях и конвертируется в пайсы.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*GatewayOrder, error) {
	if currency == "" {
		currency = "INR"
	}

	payload := map[string]interface{}{
		"amount":   int64(math.Round(amount * 100)),
		"currency": currency,
		"receipt":  receipt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payment: marshal order %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payment: create request %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment: gateway request %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("payment: read response %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment: gateway вернул статус %d: %s", resp.StatusCode, string(respBody))
	}

	var order GatewayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("payment: unmarshal response %w", err)
	}

	return &order, nil
}

// Signature вычисляет ожидаемую подпись callback'а:
// HMAC-SHA256 поверх "orderID|paymentID", hex в нижнем регистре.
func Signature(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет подпись callback'а платёжного шлюза.
// Сравнение выполняется за постоянное время. Чистая функция без побочных
// эффектов: проверка детерминирована и не подлежит повторам.
func (c *Client) VerifySignature(gatewayOrderID, gatewayPaymentID, providedSignature string) bool {
	expected := Signature(c.keySecret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(providedSignature))
}

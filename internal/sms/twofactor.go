package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client отправляет и проверяет SMS OTP через 2Factor-совместимый шлюз.
// Код генерирует сам шлюз (AUTOGEN), у нас хранится только session id.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// gatewayResponse описывает общий формат ответа шлюза.
type gatewayResponse struct {
	Status  string `json:"Status"`
	Details string `json:"Details"`
}

// SendOTP просит шлюз сгенерировать и отправить код на номер.
// Возвращает session id для последующей проверки.
func (c *Client) SendOTP(ctx context.Context, phone string) (string, error) {
	endpoint := fmt.Sprintf("%s/API/V1/%s/SMS/%s/AUTOGEN",
		c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(phone))

	result, err := c.call(ctx, endpoint)
	if err != nil {
		return "", err
	}

	if result.Status != "Success" {
		return "", fmt.Errorf("sms: шлюз отклонил отправку: %s", result.Details)
	}

	return result.Details, nil
}

// VerifyOTP проверяет код по session id.
func (c *Client) VerifyOTP(ctx context.Context, sessionID, code string) error {
	endpoint := fmt.Sprintf("%s/API/V1/%s/SMS/VERIFY/%s/%s",
		c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(sessionID), url.PathEscape(code))

	result, err := c.call(ctx, endpoint)
	if err != nil {
		return err
	}

	if result.Status != "Success" {
		return fmt.Errorf("sms: неверный код: %s", result.Details)
	}

	return nil
}

func (c *Client) call(ctx context.Context, endpoint string) (*gatewayResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("sms: create request %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sms: gateway request %w", err)
	}
	defer resp.Body.Close()

	var result gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("sms: decode response %w", err)
	}

	return &result, nil
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/payment"
	"github.com/ignatzorin/storefront-backend/internal/service"
)

func init() {
	logger.Init("error")
}

// stubGateway отклоняет любую подпись.
type stubGateway struct{}

func (stubGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*payment.GatewayOrder, error) {
	return nil, nil
}

func (stubGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, providedSignature string) bool {
	return false
}

func TestPaymentHandler_Verify_MissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: service.NewPaymentService(nil, nil, nil)}
	r.POST("/payments/verify", handler.Verify)

	bodies := []string{
		`{}`,
		`{"gateway_order_id":"order_gw_1"}`,
		`{"gateway_order_id":"order_gw_1","gateway_payment_id":"pay_1"}`,
		`{"gateway_payment_id":"pay_1","signature":"deadbeef"}`,
	}
	for _, body := range bodies {
		req, _ := http.NewRequest("POST", "/payments/verify", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "тело: %s", body)
	}
}

func TestPaymentHandler_Verify_MalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: service.NewPaymentService(nil, nil, nil)}
	r.POST("/payments/verify", handler.Verify)

	req, _ := http.NewRequest("POST", "/payments/verify", strings.NewReader("not-json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Verify_BadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: service.NewPaymentService(stubGateway{}, nil, nil)}
	r.POST("/payments/verify", handler.Verify)

	body := `{"gateway_order_id":"order_gw_1","gateway_payment_id":"pay_1","signature":"forged"}`
	req, _ := http.NewRequest("POST", "/payments/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Verified bool   `json:"verified"`
		Error    string `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Verified)
	assert.NotEmpty(t, resp.Error)
}

func TestPaymentHandler_Initiate_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/payments/initiate", handler.Initiate)

	req, _ := http.NewRequest("POST", "/payments/initiate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_Fail_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/payments/fail", handler.Fail)

	req, _ := http.NewRequest("POST", "/payments/fail", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

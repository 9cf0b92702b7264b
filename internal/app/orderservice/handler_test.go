package orderservice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-flow/internal/shared/logger"
)

func newTestRouter(pub *mockPublisher) http.Handler {
	return NewRouter(newTestService(pub), logger.NewLogger("order-service-test"))
}

func postOrders(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateOrder_Valid(t *testing.T) {
	pub := &mockPublisher{}
	rr := postOrders(t, newTestRouter(pub), `{"customer_email":"a@b.com","amount":50}`)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Message string `json:"message"`
		Order   struct {
			EventType     string  `json:"event_type"`
			OrderID       string  `json:"order_id"`
			CustomerEmail string  `json:"customer_email"`
			Amount        float64 `json:"amount"`
			Currency      string  `json:"currency"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "Order accepted", resp.Message)
	assert.Equal(t, "order.created", resp.Order.EventType)
	assert.NotEmpty(t, resp.Order.OrderID)
	assert.Equal(t, "a@b.com", resp.Order.CustomerEmail)
	assert.Equal(t, 50.0, resp.Order.Amount)
	assert.Equal(t, "USD", resp.Order.Currency)

	assert.Len(t, pub.published, 1)
}

func TestCreateOrder_MissingEmail(t *testing.T) {
	pub := &mockPublisher{}
	rr := postOrders(t, newTestRouter(pub), `{"amount":50}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "customer_email")
	assert.Empty(t, pub.published, "no event may be published for a rejected submission")
}

func TestCreateOrder_MissingAmount(t *testing.T) {
	pub := &mockPublisher{}
	rr := postOrders(t, newTestRouter(pub), `{"customer_email":"a@b.com"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "amount")
	assert.Empty(t, pub.published)
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	pub := &mockPublisher{}
	rr := postOrders(t, newTestRouter(pub), `{not json}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, pub.published)
}

func TestCreateOrder_UnsupportedMediaType(t *testing.T) {
	pub := &mockPublisher{}
	router := newTestRouter(pub)

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("customer_email=a@b.com"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	assert.Empty(t, pub.published)
}

func TestCreateOrder_BrokerDown(t *testing.T) {
	pub := &mockPublisher{err: assert.AnError}
	rr := postOrders(t, newTestRouter(pub), `{"customer_email":"a@b.com","amount":50}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "error")
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&mockPublisher{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

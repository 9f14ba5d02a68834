package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	sig := Sign("secret", "order_1", "pay_1")

	assert.True(t, VerifySignature("secret", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "order_1", "pay_2", sig))
	assert.False(t, VerifySignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "order_1", "pay_1", ""))
}

func TestClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(1000000), req.Amount)

		_ = json.NewEncoder(w).Encode(Order{ID: "order_abc", Amount: req.Amount, Currency: req.Currency, Status: "created"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", time.Second)
	order, err := c.CreateOrder(context.Background(), CreateOrderRequest{Amount: 1000000, Currency: "INR", Receipt: "r1"})

	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
}

func TestClient_TransferSendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_1/transfers", r.URL.Path)
		assert.Equal(t, "release:m1", r.Header.Get("X-Idempotency-Key"))
		_ = json.NewEncoder(w).Encode(Transfer{ID: "trf_1", Amount: 180000, Status: "processed"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", time.Second)
	trf, err := c.Transfer(context.Background(), TransferRequest{
		IdempotencyKey: "release:m1",
		PaymentID:      "pay_1",
		Account:        "seller",
		Amount:         180000,
		Currency:       "INR",
	})

	require.NoError(t, err)
	assert.Equal(t, "trf_1", trf.ID)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"invalid payment id"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", time.Second)
	_, err := c.FetchPayment(context.Background(), "pay_x")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", apiErr.Code)
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", "", time.Second)
	_, err := c.FetchPayment(context.Background(), "pay_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPayment_Captured(t *testing.T) {
	assert.True(t, (&Payment{Status: "captured"}).Captured())
	assert.False(t, (&Payment{Status: "failed"}).Captured())
}

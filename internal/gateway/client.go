package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ignatzorin/creator-escrow/internal/observability"
)

// Client работает с HTTP API шлюза. Создаётся один раз при старте и передаётся в сервисы.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	metrics    *observability.GatewayMetrics
}

// NewClient создаёт клиента шлюза.
func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    observability.Gateway(),
	}
}

// KeyID - публичный идентификатор ключа, который нужен фронтенду для открытия оплаты.
func (c *Client) KeyID() string { return c.keyID }

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var out Order
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var out Payment
	if err := c.do(ctx, "fetch_payment", http.MethodGet, "/payments/"+url.PathEscape(paymentID), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}

func (c *Client) Transfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	var out Transfer
	path := "/payments/" + url.PathEscape(req.PaymentID) + "/transfers"
	if err := c.do(ctx, "transfer", http.MethodPost, path, req.IdempotencyKey, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refund(ctx context.Context, req RefundRequest) (*Refund, error) {
	var out Refund
	path := "/payments/" + url.PathEscape(req.PaymentID) + "/refund"
	if err := c.do(ctx, "refund", http.MethodPost, path, req.IdempotencyKey, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path, idempotencyKey string, payload, out any) (err error) {
	if c.keyID == "" || c.keySecret == "" {
		return ErrNotConfigured
	}

	started := time.Now()
	defer func() { c.metrics.Observe(op, time.Since(started), err) }()

	var body io.Reader = http.NoBody
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("gateway: %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("gateway: %s: %w", op, err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Description = envelope.Error.Description
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: %s: decode: %w", op, err)
	}
	return nil
}

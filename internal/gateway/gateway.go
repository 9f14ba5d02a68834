// Package gateway - адаптер внешнего платёжного шлюза: заказы на оплату,
// проверка подписи, переводы исполнителям и возвраты.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Gateway - узкий интерфейс шлюза, которым пользуется эскроу.
// Переводы и возвраты принимают ключ идемпотентности: повтор с тем же ключом
// возвращает уже созданную операцию.
type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	Transfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
}

var ErrNotConfigured = errors.New("gateway: ключи шлюза не заданы")

// APIError - ответ шлюза с кодом ошибки.
type APIError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: status=%d code=%s: %s", e.StatusCode, e.Code, e.Description)
}

// CreateOrderRequest - выставление счёта на сумму в минимальных единицах валюты.
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// Captured сообщает, что деньги списаны с клиента.
func (p *Payment) Captured() bool {
	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case "captured", "authorized":
		return true
	}
	return false
}

// TransferRequest - перевод доли исполнителю из принятого платежа.
type TransferRequest struct {
	IdempotencyKey string            `json:"-"`
	PaymentID      string            `json:"-"`
	Account        string            `json:"account"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type Transfer struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// RefundRequest - частичный возврат клиенту.
type RefundRequest struct {
	IdempotencyKey string            `json:"-"`
	PaymentID      string            `json:"-"`
	Amount         int64             `json:"amount"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

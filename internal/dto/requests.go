package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/creator-escrow/internal/models"
)

// CreateOrderRequest - заявка бренда на кампанию у исполнителя.
type CreateOrderRequest struct {
	SellerID     string              `json:"seller_id" binding:"required,uuid"`
	Platform     string              `json:"platform" binding:"required"`
	ServiceType  string              `json:"service_type" binding:"required"`
	Terms        models.ServiceTerms `json:"terms"`
	Brief        models.ClientBrief  `json:"brief"`
	DeliveryDate *time.Time          `json:"delivery_date"`
}

// InitiatePaymentRequest открывает платёж по принятому заказу.
type InitiatePaymentRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
}

// VerifyPaymentRequest - данные, которые шлюз вернул клиенту после оплаты.
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// MilestoneRequest адресует этап платежа по номеру шага.
type MilestoneRequest struct {
	PaymentID string `json:"payment_id" binding:"required,uuid"`
	Step      int    `json:"step" binding:"required,min=1"`
}

// RefundMilestoneRequest - возврат заблокированного этапа клиенту.
type RefundMilestoneRequest struct {
	MilestoneRequest
	Reason string `json:"reason" binding:"required"`
}

// WithdrawRequest - заявка исполнителя на вывод средств.
type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// DecideWithdrawalRequest - решение администратора по заявке.
type DecideWithdrawalRequest struct {
	TransferReference string `json:"transfer_reference"`
	Note              string `json:"note"`
}

// SubmitResolutionRequest - отзыв, жалоба или запрос на возврат.
type SubmitResolutionRequest struct {
	OrderID        string  `json:"order_id" binding:"required,uuid"`
	SellerID       string  `json:"seller_id" binding:"required,uuid"`
	Type           string  `json:"type" binding:"required,oneof=review report refund_request"`
	Rating         *int    `json:"rating"`
	ReasonCategory *string `json:"reason_category"`
	Description    string  `json:"description"`
}

// UpdateResolutionStatusRequest - смена статуса обращения администратором.
type UpdateResolutionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChatMessageRequest - сообщение в переписку заказа.
type ChatMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

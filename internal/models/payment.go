package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
)

// Payment - эскроу-счёт заказа. Пока платёж в статусе created, TotalAmount хранит
// выставленную шлюзу сумму, а денежные поля равны нулю.
type Payment struct {
	ID               uuid.UUID                 `db:"id" json:"id"`
	OrderID          uuid.UUID                 `db:"order_id" json:"order_id"`
	GatewayOrderID   string                    `db:"gateway_order_id" json:"gateway_order_id"`
	GatewayPaymentID *string                   `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	GatewaySignature *string                   `db:"gateway_signature" json:"-"`
	Currency         string                    `db:"currency" json:"currency"`
	TotalAmount      decimal.Decimal           `db:"total_amount" json:"total_amount"`
	PlatformFee      decimal.Decimal           `db:"platform_fee" json:"platform_fee"`
	SellerAmount     decimal.Decimal           `db:"seller_amount" json:"seller_amount"`
	// AmountInEscrow включает комиссию площадки: у settled платежа здесь остаётся PlatformFee.
	AmountInEscrow   decimal.Decimal           `db:"amount_in_escrow" json:"amount_in_escrow"`
	AmountReleased   decimal.Decimal           `db:"amount_released" json:"amount_released"`
	AmountRefunded   decimal.Decimal           `db:"amount_refunded" json:"amount_refunded"`
	Status           valueobject.PaymentStatus `db:"status" json:"status"`
	FailureReason    *string                   `db:"failure_reason" json:"failure_reason,omitempty"`
	CapturedAt       *time.Time                `db:"captured_at" json:"captured_at,omitempty"`
	CreatedAt        time.Time                 `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time                 `db:"updated_at" json:"updated_at"`
	Milestones       []Milestone               `db:"-" json:"milestones"`
}

// Milestone - одна доля суммы исполнителя, выплачиваемая по запросу и подтверждению.
type Milestone struct {
	ID           uuid.UUID                   `db:"id" json:"id"`
	PaymentID    uuid.UUID                   `db:"payment_id" json:"payment_id"`
	Step         int                         `db:"step" json:"step"`
	Name         string                      `db:"name" json:"name"`
	Amount       decimal.Decimal             `db:"amount" json:"amount"`
	Status       valueobject.MilestoneStatus `db:"status" json:"status"`
	RequestedAt  *time.Time                  `db:"requested_at" json:"requested_at,omitempty"`
	ReleasedAt   *time.Time                  `db:"released_at" json:"released_at,omitempty"`
	RefundedAt   *time.Time                  `db:"refunded_at" json:"refunded_at,omitempty"`
	ExternalRef  *string                     `db:"external_ref" json:"external_ref,omitempty"`
	RefundReason *string                     `db:"refund_reason" json:"refund_reason,omitempty"`
	CreatedAt    time.Time                   `db:"created_at" json:"created_at"`
}

// ReleasedEarning - выплаченный исполнителю этап, из которых складывается баланс.
type ReleasedEarning struct {
	MilestoneID uuid.UUID       `db:"milestone_id" json:"milestone_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	ReleasedAt  time.Time       `db:"released_at" json:"released_at"`
}

// MilestoneByStep возвращает этап по номеру или nil.
func (p *Payment) MilestoneByStep(step int) *Milestone {
	for i := range p.Milestones {
		if p.Milestones[i].Step == step {
			return &p.Milestones[i]
		}
	}
	return nil
}

// AllMilestonesReleased сообщает, что все этапы выплачены исполнителю.
func (p *Payment) AllMilestonesReleased() bool {
	if len(p.Milestones) == 0 {
		return false
	}
	for _, m := range p.Milestones {
		if m.Status != valueobject.MilestoneStatusReleased {
			return false
		}
	}
	return true
}

// IsBalanced проверяет сохранение денег: escrow + released + refunded == total.
func (p *Payment) IsBalanced() bool {
	if !p.Status.HoldsFunds() {
		return true
	}
	return p.AmountInEscrow.Add(p.AmountReleased).Add(p.AmountRefunded).Equal(p.TotalAmount)
}

// SettlementStatus выводит статус платежа из состояния этапов.
func (p *Payment) SettlementStatus() valueobject.PaymentStatus {
	var open, refunded int
	for _, m := range p.Milestones {
		switch m.Status {
		case valueobject.MilestoneStatusRefunded:
			refunded++
		case valueobject.MilestoneStatusLocked, valueobject.MilestoneStatusPendingApproval:
			open++
		}
	}
	switch {
	case refunded > 0 && refunded == len(p.Milestones):
		return valueobject.PaymentStatusFullyRefunded
	case refunded > 0:
		return valueobject.PaymentStatusPartiallyRefunded
	case open == 0 && len(p.Milestones) > 0:
		return valueobject.PaymentStatusSettled
	}
	return valueobject.PaymentStatusCaptured
}

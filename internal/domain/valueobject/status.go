package valueobject

import "github.com/ignatzorin/creator-escrow/internal/pkg/apperror"

// OrderStatus - статус заказа. Граф переходов только вперёд:
// requested → {rejected | payment_pending} → active → {completed | cancelled | disputed}.
type OrderStatus string

const (
	OrderStatusRequested      OrderStatus = "requested"
	OrderStatusRejected       OrderStatus = "rejected"
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	OrderStatusActive         OrderStatus = "active"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusDisputed       OrderStatus = "disputed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusRequested:      {OrderStatusRejected, OrderStatusPaymentPending},
	OrderStatusPaymentPending: {OrderStatusActive},
	OrderStatusActive:         {OrderStatusCompleted, OrderStatusCancelled, OrderStatusDisputed},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusRequested, OrderStatusRejected, OrderStatusPaymentPending, OrderStatusActive,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusDisputed:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return contains(orderTransitions[s], next)
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус заказа")
	}
	return s, nil
}

// PaymentStatus - статус платежа: created → captured → {partially_refunded | fully_refunded | settled}, либо failed.
type PaymentStatus string

const (
	PaymentStatusCreated           PaymentStatus = "created"
	PaymentStatusCaptured          PaymentStatus = "captured"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusFullyRefunded     PaymentStatus = "fully_refunded"
	PaymentStatusSettled           PaymentStatus = "settled"
	PaymentStatusFailed            PaymentStatus = "failed"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCreated:           {PaymentStatusCaptured, PaymentStatusFailed},
	PaymentStatusCaptured:          {PaymentStatusPartiallyRefunded, PaymentStatusFullyRefunded, PaymentStatusSettled},
	PaymentStatusPartiallyRefunded: {PaymentStatusFullyRefunded},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return contains(paymentTransitions[s], next)
}

// HoldsFunds сообщает, что по платежу были приняты деньги.
func (s PaymentStatus) HoldsFunds() bool {
	return s != PaymentStatusCreated && s != PaymentStatusFailed
}

// MilestoneStatus - статус этапа: locked → pending_approval → released, либо locked → refunded.
type MilestoneStatus string

const (
	MilestoneStatusLocked          MilestoneStatus = "locked"
	MilestoneStatusPendingApproval MilestoneStatus = "pending_approval"
	MilestoneStatusReleased        MilestoneStatus = "released"
	MilestoneStatusRefunded        MilestoneStatus = "refunded"
)

var milestoneTransitions = map[MilestoneStatus][]MilestoneStatus{
	MilestoneStatusLocked:          {MilestoneStatusPendingApproval, MilestoneStatusRefunded},
	MilestoneStatusPendingApproval: {MilestoneStatusReleased},
}

func (s MilestoneStatus) CanTransitionTo(next MilestoneStatus) bool {
	return contains(milestoneTransitions[s], next)
}

// IsSettled сообщает, что деньги этапа уже покинули эскроу.
func (s MilestoneStatus) IsSettled() bool {
	return s == MilestoneStatusReleased || s == MilestoneStatusRefunded
}

// WithdrawalStatus - статус заявки на вывод: pending → {approved | rejected}.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	return s == WithdrawalStatusPending && (next == WithdrawalStatusApproved || next == WithdrawalStatusRejected)
}

// ResolutionType - вид обращения клиента по заказу.
type ResolutionType string

const (
	ResolutionTypeReview        ResolutionType = "review"
	ResolutionTypeReport        ResolutionType = "report"
	ResolutionTypeRefundRequest ResolutionType = "refund_request"
)

func (t ResolutionType) IsValid() bool {
	switch t {
	case ResolutionTypeReview, ResolutionTypeReport, ResolutionTypeRefundRequest:
		return true
	}
	return false
}

// ResolutionStatus - статус обращения, которым управляет администратор.
type ResolutionStatus string

const (
	ResolutionStatusPending   ResolutionStatus = "pending"
	ResolutionStatusResolved  ResolutionStatus = "resolved"
	ResolutionStatusDismissed ResolutionStatus = "dismissed"
	ResolutionStatusApproved  ResolutionStatus = "approved"
)

func (s ResolutionStatus) CanTransitionTo(next ResolutionStatus) bool {
	if s != ResolutionStatusPending {
		return false
	}
	switch next {
	case ResolutionStatusResolved, ResolutionStatusDismissed, ResolutionStatusApproved:
		return true
	}
	return false
}

func NewResolutionStatus(status string) (ResolutionStatus, error) {
	s := ResolutionStatus(status)
	switch s {
	case ResolutionStatusPending, ResolutionStatusResolved, ResolutionStatusDismissed, ResolutionStatusApproved:
		return s, nil
	}
	return "", apperror.Validation("некорректный статус обращения")
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

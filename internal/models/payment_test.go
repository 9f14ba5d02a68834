package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
)

func paymentWith(statuses ...valueobject.MilestoneStatus) *Payment {
	p := &Payment{Status: valueobject.PaymentStatusCaptured}
	for i, s := range statuses {
		p.Milestones = append(p.Milestones, Milestone{Step: i + 1, Status: s})
	}
	return p
}

func TestPayment_SettlementStatus(t *testing.T) {
	const (
		locked   = valueobject.MilestoneStatusLocked
		pending  = valueobject.MilestoneStatusPendingApproval
		released = valueobject.MilestoneStatusReleased
		refunded = valueobject.MilestoneStatusRefunded
	)

	tests := []struct {
		name string
		p    *Payment
		want valueobject.PaymentStatus
	}{
		{"open milestones", paymentWith(released, pending, locked), valueobject.PaymentStatusCaptured},
		{"all released", paymentWith(released, released), valueobject.PaymentStatusSettled},
		{"one refunded", paymentWith(released, refunded, locked), valueobject.PaymentStatusPartiallyRefunded},
		{"all refunded", paymentWith(refunded, refunded), valueobject.PaymentStatusFullyRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.SettlementStatus())
		})
	}
}

func TestPayment_IsBalanced(t *testing.T) {
	p := &Payment{
		Status:         valueobject.PaymentStatusCaptured,
		TotalAmount:    decimal.NewFromInt(10000),
		AmountInEscrow: decimal.NewFromInt(6400),
		AmountReleased: decimal.NewFromInt(1800),
		AmountRefunded: decimal.NewFromInt(1800),
	}
	assert.True(t, p.IsBalanced())

	p.AmountReleased = decimal.NewFromInt(3600)
	assert.False(t, p.IsBalanced())

	// До приёма оплаты сумма только выставлена.
	quote := &Payment{Status: valueobject.PaymentStatusCreated, TotalAmount: decimal.NewFromInt(500)}
	assert.True(t, quote.IsBalanced())
}

func TestPayment_AllMilestonesReleased(t *testing.T) {
	assert.False(t, paymentWith().AllMilestonesReleased())
	assert.False(t, paymentWith(valueobject.MilestoneStatusReleased, valueobject.MilestoneStatusRefunded).AllMilestonesReleased())
	assert.True(t, paymentWith(valueobject.MilestoneStatusReleased).AllMilestonesReleased())
	assert.NotNil(t, paymentWith(valueobject.MilestoneStatusLocked).MilestoneByStep(1))
	assert.Nil(t, paymentWith(valueobject.MilestoneStatusLocked).MilestoneByStep(2))
}

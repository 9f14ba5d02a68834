package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
)

// PayoutDestination - реквизиты для выплаты исполнителю.
type PayoutDestination struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	UPIID         string `json:"upi_id,omitempty"`
}

// IsComplete сообщает, что реквизитов достаточно для перевода.
func (d PayoutDestination) IsComplete() bool {
	if d.UPIID != "" {
		return true
	}
	return d.AccountHolder != "" && d.AccountNumber != ""
}

func (d PayoutDestination) Value() (driver.Value, error) { return jsonValue(d) }

func (d *PayoutDestination) Scan(src interface{}) error { return scanJSON(src, d) }

// WithdrawalRequest - заявка исполнителя на вывод доступного баланса.
type WithdrawalRequest struct {
	ID                uuid.UUID                    `db:"id" json:"id"`
	SellerID          uuid.UUID                    `db:"seller_id" json:"seller_id"`
	Amount            decimal.Decimal              `db:"amount" json:"amount"`
	Status            valueobject.WithdrawalStatus `db:"status" json:"status"`
	PayoutDetails     PayoutDestination            `db:"payout_details" json:"payout_details"`
	AdminNote         *string                      `db:"admin_note" json:"admin_note,omitempty"`
	TransferReference *string                      `db:"transfer_reference" json:"transfer_reference,omitempty"`
	ProcessedAt       *time.Time                   `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt         time.Time                    `db:"created_at" json:"created_at"`
}

// Balance - денежная позиция исполнителя на момент расчёта.
type Balance struct {
	LifetimeEarnings decimal.Decimal `json:"lifetime_earnings"`
	Withdrawn        decimal.Decimal `json:"withdrawn"`
	PendingRequested decimal.Decimal `json:"pending_requested"`
	Locked           decimal.Decimal `json:"locked"`
	Available        decimal.Decimal `json:"available"`
	ComputedAt       time.Time       `json:"computed_at"`
}

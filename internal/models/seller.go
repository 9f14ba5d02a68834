package models

import (
	"time"

	"github.com/google/uuid"
)

// Seller - профиль исполнителя в части, нужной для денег и рейтинга.
// Сам профиль ведёт сервис аккаунтов, здесь он только читается и обновляется агрегат рейтинга.
type Seller struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	DisplayName    string             `db:"display_name" json:"display_name"`
	PayoutDetails  *PayoutDestination `db:"payout_details" json:"payout_details,omitempty"`
	PayoutVerified bool               `db:"payout_verified" json:"payout_verified"`
	Rating         float64            `db:"rating" json:"rating"`
	ReviewCount    int                `db:"review_count" json:"review_count"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// VerifiedPayout возвращает реквизиты, если они подтверждены и заполнены.
func (s *Seller) VerifiedPayout() (PayoutDestination, bool) {
	if s.PayoutDetails == nil || !s.PayoutVerified || !s.PayoutDetails.IsComplete() {
		return PayoutDestination{}, false
	}
	return *s.PayoutDetails, true
}

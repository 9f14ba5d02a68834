package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
)

// Resolution - отзыв, жалоба или запрос на возврат по заказу.
type Resolution struct {
	ID             uuid.UUID                    `db:"id" json:"id"`
	OrderID        uuid.UUID                    `db:"order_id" json:"order_id"`
	ClientID       uuid.UUID                    `db:"client_id" json:"client_id"`
	SellerID       uuid.UUID                    `db:"seller_id" json:"seller_id"`
	Type           valueobject.ResolutionType   `db:"type" json:"type"`
	Rating         *int                         `db:"rating" json:"rating,omitempty"`
	ReasonCategory *string                      `db:"reason_category" json:"reason_category,omitempty"`
	Description    string                       `db:"description" json:"description"`
	Status         valueobject.ResolutionStatus `db:"status" json:"status"`
	CreatedAt      time.Time                    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time                    `db:"updated_at" json:"updated_at"`
}

// RatingStats - агрегат отзывов исполнителя.
type RatingStats struct {
	Average float64 `db:"average" json:"average"`
	Count   int     `db:"count" json:"count"`
}

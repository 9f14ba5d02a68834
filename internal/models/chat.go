package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage - запись журнала переписки по заказу. Журнал только дополняется.
type ChatMessage struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	SenderID   uuid.UUID `db:"sender_id" json:"sender_id"`
	SenderRole string    `db:"sender_role" json:"sender_role"`
	Text       string    `db:"text" json:"text"`
	Timestamp  time.Time `db:"sent_at" json:"timestamp"`
}

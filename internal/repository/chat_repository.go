package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
)

type ChatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append дописывает сообщение в журнал заказа.
func (r *ChatRepository) Append(ctx context.Context, msg *models.ChatMessage) error {
	_, err := common.Conn(ctx, r.db).NamedExecContext(ctx, `
		INSERT INTO order_chat_messages (id, order_id, sender_id, sender_role, text, sent_at)
		VALUES (:id, :order_id, :sender_id, :sender_role, :text, :sent_at)
	`, msg)
	if err != nil {
		return fmt.Errorf("chat repository: append: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	var list []models.ChatMessage
	query := `
		SELECT * FROM order_chat_messages
		WHERE order_id = $1
		ORDER BY sent_at, id
		LIMIT $2 OFFSET $3
	`
	if err := common.Conn(ctx, r.db).SelectContext(ctx, &list, query, orderID, limit, offset); err != nil {
		return nil, fmt.Errorf("chat repository: list by order: %w", err)
	}
	return list, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
)

// OrderHistoryRepository читает журнал статусов заказа.
// Строки журнала пишет OrderRepository вместе со сменой статуса.
type OrderHistoryRepository struct {
	db *sqlx.DB
}

func NewOrderHistoryRepository(db *sqlx.DB) *OrderHistoryRepository {
	return &OrderHistoryRepository{db: db}
}

func (r *OrderHistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	var history []models.OrderStatusChange
	err := common.Conn(ctx, r.db).SelectContext(ctx, &history, `
		SELECT id, order_id, from_status, to_status, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order history repository: list: %w", err)
	}
	return history, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create сохраняет новый заказ и заполняет серверные поля.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, seller_id, client_id, seller_name, platform, service_type, terms, brief,
			total_amount, status, delivery_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := common.Conn(ctx, r.db).GetContext(ctx, order, query,
		order.ID, order.SellerID, order.ClientID, order.SellerName, order.Platform, order.ServiceType,
		order.Terms, order.Brief, order.TotalAmount, order.Status, order.DeliveryDate,
	)
	if err != nil {
		return fmt.Errorf("order repository: create: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return common.GetByID[models.Order](ctx, common.Conn(ctx, r.db), "orders", id, apperror.ErrOrderNotFound)
}

// ListByParticipant возвращает заказы, где пользователь исполнитель или заказчик.
func (r *OrderRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	query := `
		SELECT * FROM orders
		WHERE seller_id = $1 OR client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := common.Conn(ctx, r.db).SelectContext(ctx, &orders, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list by participant: %w", err)
	}
	return orders, nil
}

// TransitionStatus переводит заказ из from в to одним условным UPDATE
// и в том же запросе пишет строку журнала статусов.
// false означает, что статус уже изменился и переход проигран.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to valueobject.OrderStatus) (bool, error) {
	res, err := common.Conn(ctx, r.db).ExecContext(ctx, `
		WITH moved AS (
			UPDATE orders SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING id
		)
		INSERT INTO order_status_history (order_id, from_status, to_status)
		SELECT id, $2, $3 FROM moved
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("order repository: transition %s->%s: %w", from, to, err)
	}
	return common.Affected(res)
}

// AttachPayment активирует заказ и привязывает платёж, только если заказ ждёт оплаты
// и платёж ещё не привязан.
func (r *OrderRepository) AttachPayment(ctx context.Context, id, paymentID uuid.UUID) (bool, error) {
	res, err := common.Conn(ctx, r.db).ExecContext(ctx, `
		WITH moved AS (
			UPDATE orders SET status = $3, payment_id = $2, updated_at = NOW()
			WHERE id = $1 AND status = $4 AND payment_id IS NULL
			RETURNING id
		)
		INSERT INTO order_status_history (order_id, from_status, to_status)
		SELECT id, $4, $3 FROM moved
	`, id, paymentID, valueobject.OrderStatusActive, valueobject.OrderStatusPaymentPending)
	if err != nil {
		return false, fmt.Errorf("order repository: attach payment: %w", err)
	}
	return common.Affected(res)
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/creator-escrow/internal/goroutine"
	"github.com/ignatzorin/creator-escrow/internal/logger"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
)

// События, которые уходят участникам заказа через хаб.
const (
	EventOrderRequested       = "order.requested"
	EventOrderAccepted        = "order.accepted"
	EventOrderRejected        = "order.rejected"
	EventOrderCancelled       = "order.cancelled"
	EventPaymentCaptured      = "payment.captured"
	EventMilestoneRequested   = "milestone.release_requested"
	EventMilestoneReleased    = "milestone.released"
	EventMilestoneRefunded    = "milestone.refunded"
	EventPaymentFullyReleased = "payment.fully_released"
	EventResolutionSubmitted  = "resolution.submitted"
	EventWithdrawalProcessed  = "withdrawal.processed"
	EventChatMessage          = "chat.message"
)

// Transactor выполняет fn в одной транзакции хранилища.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier доставляет событие пользователю в реальном времени.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// OrderReader - чтение заказа, нужное всем сервисам.
type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// notify отправляет событие асинхронно: сбой доставки не влияет на денежную операцию.
func notify(n Notifier, userID uuid.UUID, event string, data any) {
	if n == nil {
		return
	}
	goroutine.SafeGoNamed(event, func() {
		if err := n.BroadcastToUser(userID, event, data); err != nil {
			logger.Log.WithFields(logrus.Fields{"event": event, "user_id": userID}).WithError(err).Warn("не удалось доставить событие")
		}
	})
}

// failure пропускает бизнес-ошибки как есть, а непредвиденные логирует
// с операцией и агрегатом и превращает в INTERNAL_ERROR.
func failure(op, aggregateKey string, aggregateID interface{}, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == apperror.ErrCodeInternal || appErr.Code == apperror.ErrCodeGateway {
			logger.Operation(op, aggregateKey, aggregateID).WithError(err).Error("операция не выполнена")
		}
		return err
	}
	logger.Operation(op, aggregateKey, aggregateID).WithError(err).Error("операция не выполнена")
	return apperror.Internal(err)
}

// loadOrder читает заказ и переводит сбой хранилища в INTERNAL_ERROR.
func loadOrder(ctx context.Context, orders OrderReader, op string, orderID uuid.UUID) (*models.Order, error) {
	order, err := orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, failure(op, "order_id", orderID, err)
	}
	return order, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

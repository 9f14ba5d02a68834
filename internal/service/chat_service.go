package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/validation"
)

type ChatRepository interface {
	Append(ctx context.Context, msg *models.ChatMessage) error
	ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]models.ChatMessage, error)
}

// ChatService - переписка участников заказа.
type ChatService struct {
	messages ChatRepository
	orders   OrderReader
	notifier Notifier
}

func NewChatService(messages ChatRepository, orders OrderReader, notifier Notifier) *ChatService {
	return &ChatService{messages: messages, orders: orders, notifier: notifier}
}

// Append сохраняет сообщение и пересылает его второму участнику.
// Роль отправителя берётся из заказа, а не из запроса.
func (s *ChatService) Append(ctx context.Context, orderID, senderID uuid.UUID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateText("сообщение", text, validation.MaxChatMessageLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	order, err := loadOrder(ctx, s.orders, "append_chat", orderID)
	if err != nil {
		return nil, err
	}
	role := order.RoleOf(senderID)
	if role == "" {
		return nil, apperror.ErrNotParticipant
	}

	msg := &models.ChatMessage{
		ID:         uuid.New(),
		OrderID:    order.ID,
		SenderID:   senderID,
		SenderRole: role,
		Text:       text,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, failure("append_chat", "order_id", order.ID, err)
	}

	notify(s.notifier, order.Counterparty(senderID), EventChatMessage, msg)
	return msg, nil
}

// List возвращает журнал переписки участнику заказа.
func (s *ChatService) List(ctx context.Context, orderID, userID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	order, err := loadOrder(ctx, s.orders, "list_chat", orderID)
	if err != nil {
		return nil, err
	}
	if order.RoleOf(userID) == "" {
		return nil, apperror.ErrNotParticipant
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.messages.ListByOrder(ctx, orderID, limit, offset)
	if err != nil {
		return nil, failure("list_chat", "order_id", orderID, err)
	}
	return list, nil
}

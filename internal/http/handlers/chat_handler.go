package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/creator-escrow/internal/dto"
	"github.com/ignatzorin/creator-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/creator-escrow/internal/http/response"
	"github.com/ignatzorin/creator-escrow/internal/models"
)

// ChatService - журнал переписки по заказу.
type ChatService interface {
	Append(ctx context.Context, orderID, senderID uuid.UUID, text string) (*models.ChatMessage, error)
	List(ctx context.Context, orderID, userID uuid.UUID, limit, offset int) ([]models.ChatMessage, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// ListMessages GET /order/:id/chat
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	messages, err := h.chat.List(c.Request.Context(), orderID, userID,
		common.ParseIntQuery(c, "limit", 0), common.ParseIntQuery(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, messages)
}

// SendMessage POST /order/:id/chat
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.ChatMessageRequest
	if !common.BindJSON(c, &req) {
		return
	}

	msg, err := h.chat.Append(c.Request.Context(), orderID, userID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, msg)
}

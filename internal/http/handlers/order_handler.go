package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/creator-escrow/internal/dto"
	"github.com/ignatzorin/creator-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/creator-escrow/internal/http/response"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/service"
)

// OrderService - операции заказа, доступные участникам.
type OrderService interface {
	CreateOrderRequest(ctx context.Context, in service.CreateOrderInput) (*models.Order, error)
	Accept(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Order, error)
	Reject(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	GetHistory(ctx context.Context, orderID, userID uuid.UUID) ([]models.OrderStatusChange, error)
}

type OrderHandler struct {
	orders OrderService
}

// NewOrderHandler создаёт новый хэндлер.
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder обрабатывает POST /order/create.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	clientID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !common.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.CreateOrderRequest(c.Request.Context(), service.CreateOrderInput{
		SellerID:     uuid.MustParse(req.SellerID),
		ClientID:     clientID,
		Platform:     req.Platform,
		ServiceType:  req.ServiceType,
		Terms:        req.Terms,
		Brief:        req.Brief,
		DeliveryDate: req.DeliveryDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, order)
}

// ListMyOrders обрабатывает GET /order/my.
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListMyOrders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, orders)
}

// GetOrder обрабатывает GET /order/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, order)
}

// GetHistory обрабатывает GET /order/:id/history.
func (h *OrderHandler) GetHistory(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	history, err := h.orders.GetHistory(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, history)
}

// AcceptOrder обрабатывает PUT /order/:id/accept.
func (h *OrderHandler) AcceptOrder(c *gin.Context) {
	h.decide(c, h.orders.Accept, "заказ принят, ожидается оплата")
}

// RejectOrder обрабатывает PUT /order/:id/reject.
func (h *OrderHandler) RejectOrder(c *gin.Context) {
	h.decide(c, h.orders.Reject, "заказ отклонён")
}

func (h *OrderHandler) decide(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error), message string) {
	sellerID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	order, err := fn(c.Request.Context(), orderID, sellerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, message, order)
}

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
)

// MilestoneRefunder возвращает заблокированный этап клиенту.
type MilestoneRefunder interface {
	RefundMilestone(ctx context.Context, paymentID uuid.UUID, step int, reason string) (*models.Payment, error)
}

// OrderCanceller отменяет активный заказ.
type OrderCanceller interface {
	Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// WithdrawalDecider принимает решение по заявке на вывод.
type WithdrawalDecider interface {
	Approve(ctx context.Context, id uuid.UUID, transferReference, note string) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, id uuid.UUID, note string) (*models.WithdrawalRequest, error)
}

// ResolutionModerator меняет статус обращения.
type ResolutionModerator interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Resolution, error)
}

// AdminHandler - операции оператора площадки. Доступ проверяет middleware.RequireRole.
type AdminHandler struct {
	escrow      MilestoneRefunder
	orders      OrderCanceller
	withdrawals WithdrawalDecider
	resolutions ResolutionModerator
}

func NewAdminHandler(escrow MilestoneRefunder, orders OrderCanceller, withdrawals WithdrawalDecider, resolutions ResolutionModerator) *AdminHandler {
	return &AdminHandler{
		escrow:      escrow,
		orders:      orders,
		withdrawals: withdrawals,
		resolutions: resolutions,
	}
}

// RefundMilestone POST /admin/payment/refund-milestone
func (h *AdminHandler) RefundMilestone(c *gin.Context) {
	var req dto.RefundMilestoneRequest
	if !common.BindJSON(c, &req) {
		return
	}

	payment, err := h.escrow.RefundMilestone(c.Request.Context(), uuid.MustParse(req.PaymentID), req.Step, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "этап возвращён заказчику", payment)
}

// CancelOrder PUT /admin/order/:id/cancel
func (h *AdminHandler) CancelOrder(c *gin.Context) {
	orderID, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "заказ отменён", order)
}

// ApproveWithdrawal PUT /admin/withdrawals/:id/approve
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	id, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.DecideWithdrawalRequest
	if !common.BindJSON(c, &req) {
		return
	}

	withdrawal, err := h.withdrawals.Approve(c.Request.Context(), id, req.TransferReference, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, withdrawal)
}

// RejectWithdrawal PUT /admin/withdrawals/:id/reject
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	id, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.DecideWithdrawalRequest
	if !common.BindJSON(c, &req) {
		return
	}

	withdrawal, err := h.withdrawals.Reject(c.Request.Context(), id, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, withdrawal)
}

// UpdateResolutionStatus PUT /admin/resolutions/:id/status
func (h *AdminHandler) UpdateResolutionStatus(c *gin.Context) {
	id, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateResolutionStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}

	resolution, err := h.resolutions.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resolution)
}

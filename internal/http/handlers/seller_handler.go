package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/creator-escrow/internal/dto"
	"github.com/ignatzorin/creator-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/creator-escrow/internal/http/response"
	"github.com/ignatzorin/creator-escrow/internal/models"
)

// PayoutService - баланс и заявки на вывод исполнителя.
type PayoutService interface {
	ComputeBalance(ctx context.Context, sellerID uuid.UUID, now time.Time) (*models.Balance, error)
	RequestWithdrawal(ctx context.Context, sellerID uuid.UUID, amount decimal.Decimal) (*models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
}

type SellerHandler struct {
	payouts PayoutService
	now     func() time.Time
}

func NewSellerHandler(payouts PayoutService) *SellerHandler {
	return &SellerHandler{payouts: payouts, now: time.Now}
}

// Earnings GET /seller/earnings
func (h *SellerHandler) Earnings(c *gin.Context) {
	sellerID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	balance, err := h.payouts.ComputeBalance(c.Request.Context(), sellerID, h.now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, balance)
}

// Withdraw POST /seller/withdraw
func (h *SellerHandler) Withdraw(c *gin.Context) {
	sellerID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if !common.BindJSON(c, &req) {
		return
	}

	withdrawal, err := h.payouts.RequestWithdrawal(c.Request.Context(), sellerID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "заявка на вывод создана", withdrawal)
}

// ListWithdrawals GET /seller/withdrawals
func (h *SellerHandler) ListWithdrawals(c *gin.Context) {
	sellerID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	withdrawals, err := h.payouts.ListWithdrawals(c.Request.Context(), sellerID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, withdrawals)
}

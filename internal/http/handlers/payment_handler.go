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

// EscrowService - операции эскроу, доступные участникам заказа.
type EscrowService interface {
	InitiatePayment(ctx context.Context, orderID, clientID uuid.UUID) (*service.PaymentIntent, error)
	CaptureAndOpenEscrow(ctx context.Context, clientID uuid.UUID, v service.GatewayVerification) (*models.Payment, error)
	RequestMilestoneRelease(ctx context.Context, paymentID uuid.UUID, step int, sellerID uuid.UUID) (*models.Milestone, error)
	ApproveMilestoneRelease(ctx context.Context, paymentID uuid.UUID, step int, clientID uuid.UUID) (*service.ReleaseResult, error)
	GetPaymentForOrder(ctx context.Context, orderID, userID uuid.UUID) (*service.PaymentView, error)
}

type PaymentHandler struct {
	escrow EscrowService
}

func NewPaymentHandler(escrow EscrowService) *PaymentHandler {
	return &PaymentHandler{escrow: escrow}
}

// Initiate POST /payment/initiate
func (h *PaymentHandler) Initiate(c *gin.Context) {
	clientID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.InitiatePaymentRequest
	if !common.BindJSON(c, &req) {
		return
	}

	intent, err := h.escrow.InitiatePayment(c.Request.Context(), uuid.MustParse(req.OrderID), clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, intent)
}

// Verify POST /payment/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	clientID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.VerifyPaymentRequest
	if !common.BindJSON(c, &req) {
		return
	}

	payment, err := h.escrow.CaptureAndOpenEscrow(c.Request.Context(), clientID, service.GatewayVerification{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "оплата подтверждена, средства в эскроу", payment)
}

// RequestRelease POST /payment/request-release
func (h *PaymentHandler) RequestRelease(c *gin.Context) {
	sellerID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.MilestoneRequest
	if !common.BindJSON(c, &req) {
		return
	}

	milestone, err := h.escrow.RequestMilestoneRelease(c.Request.Context(), uuid.MustParse(req.PaymentID), req.Step, sellerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "запрос на выплату этапа отправлен заказчику", milestone)
}

// ReleaseMilestone POST /payment/release-milestone
func (h *PaymentHandler) ReleaseMilestone(c *gin.Context) {
	clientID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.MilestoneRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.escrow.ApproveMilestoneRelease(c.Request.Context(), uuid.MustParse(req.PaymentID), req.Step, clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "этап выплачен исполнителю"
	if result.AllReleased {
		message = "все этапы выплачены"
	}
	response.Message(c, http.StatusOK, message, result)
}

// GetForOrder GET /payment/order/:orderId
func (h *PaymentHandler) GetForOrder(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.PathID(c, "orderId")
	if !ok {
		return
	}

	view, err := h.escrow.GetPaymentForOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

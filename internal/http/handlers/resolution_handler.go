package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/dto"
	"github.com/ignatzorin/creator-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/creator-escrow/internal/http/response"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/service"
)

// ResolutionService - отзывы, жалобы и запросы на возврат.
type ResolutionService interface {
	Submit(ctx context.Context, in service.SubmitResolutionInput) (*models.Resolution, error)
	ListByOrder(ctx context.Context, orderID, userID uuid.UUID) ([]models.Resolution, error)
}

type ResolutionHandler struct {
	resolutions ResolutionService
}

func NewResolutionHandler(resolutions ResolutionService) *ResolutionHandler {
	return &ResolutionHandler{resolutions: resolutions}
}

// Submit POST /order/resolution
func (h *ResolutionHandler) Submit(c *gin.Context) {
	clientID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.SubmitResolutionRequest
	if !common.BindJSON(c, &req) {
		return
	}

	resolution, err := h.resolutions.Submit(c.Request.Context(), service.SubmitResolutionInput{
		OrderID:        uuid.MustParse(req.OrderID),
		ClientID:       clientID,
		SellerID:       uuid.MustParse(req.SellerID),
		Type:           valueobject.ResolutionType(req.Type),
		Rating:         req.Rating,
		ReasonCategory: req.ReasonCategory,
		Description:    req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, resolution)
}

// ListByOrder GET /order/:id/resolutions
func (h *ResolutionHandler) ListByOrder(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.PathID(c, "id")
	if !ok {
		return
	}

	items, err := h.resolutions.ListByOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, items)
}

package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/service"
)

func orderRoutes(userID uuid.UUID, orders *mockOrders) http.Handler {
	r := testRouter(userID)
	h := NewOrderHandler(orders)
	r.POST("/order/create", h.CreateOrder)
	r.GET("/order/my", h.ListMyOrders)
	r.GET("/order/:id", h.GetOrder)
	r.GET("/order/:id/history", h.GetHistory)
	r.PUT("/order/:id/accept", h.AcceptOrder)
	r.PUT("/order/:id/reject", h.RejectOrder)
	return r
}

func TestOrderHandler_CreateOrder_Unauthorized(t *testing.T) {
	w, resp := call(t, orderRoutes(uuid.Nil, &mockOrders{}), http.MethodPost, "/order/create", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	clientID, sellerID := uuid.New(), uuid.New()
	orders := &mockOrders{}
	orders.On("CreateOrderRequest", mock.Anything, mock.MatchedBy(func(in service.CreateOrderInput) bool {
		return in.ClientID == clientID && in.SellerID == sellerID &&
			in.Platform == "instagram" && in.Terms.Amount.Equal(decimal.NewFromInt(10000))
	})).Return(&models.Order{ID: uuid.New(), Status: valueobject.OrderStatusRequested}, nil)

	w, resp := call(t, orderRoutes(clientID, orders), http.MethodPost, "/order/create", map[string]interface{}{
		"seller_id":    sellerID.String(),
		"platform":     "instagram",
		"service_type": "reel",
		"terms":        map[string]interface{}{"amount": "10000", "timeline_days": 7},
		"brief":        map[string]interface{}{"brand_name": "Acme", "contact_email": "ads@acme.in", "budget": 12000, "goals": "launch"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	orders.AssertExpectations(t)
}

func TestOrderHandler_CreateOrder_BadSellerID(t *testing.T) {
	orders := &mockOrders{}
	w, resp := call(t, orderRoutes(uuid.New(), orders), http.MethodPost, "/order/create", map[string]interface{}{
		"seller_id":    "nope",
		"platform":     "instagram",
		"service_type": "reel",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", resp.Error.Code)
	orders.AssertNotCalled(t, "CreateOrderRequest", mock.Anything, mock.Anything)
}

func TestOrderHandler_Accept_MapsErrors(t *testing.T) {
	sellerID, orderID := uuid.New(), uuid.New()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not pending", apperror.InvalidTransition("заказ уже обработан"), http.StatusConflict},
		{"wrong seller", apperror.ErrNotOrderSeller, http.StatusForbidden},
		{"missing", apperror.ErrOrderNotFound, http.StatusNotFound},
		{"storage", errors.New("pq: broken pipe"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrders{}
			orders.On("Accept", mock.Anything, orderID, sellerID).Return(nil, tt.err)

			w, _ := call(t, orderRoutes(sellerID, orders), http.MethodPut, "/order/"+orderID.String()+"/accept", nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestOrderHandler_Reject(t *testing.T) {
	sellerID, orderID := uuid.New(), uuid.New()
	orders := &mockOrders{}
	orders.On("Reject", mock.Anything, orderID, sellerID).
		Return(&models.Order{ID: orderID, Status: valueobject.OrderStatusRejected}, nil)

	w, resp := call(t, orderRoutes(sellerID, orders), http.MethodPut, "/order/"+orderID.String()+"/reject", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "заказ отклонён", resp.Message)
}

func TestOrderHandler_GetOrder_InvalidID(t *testing.T) {
	w, _ := call(t, orderRoutes(uuid.New(), &mockOrders{}), http.MethodGet, "/order/invalid-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_ListMyOrders_Pagination(t *testing.T) {
	userID := uuid.New()
	orders := &mockOrders{}
	orders.On("ListMyOrders", mock.Anything, userID, 100, 5).Return([]models.Order{}, nil)

	w, _ := call(t, orderRoutes(userID, orders), http.MethodGet, "/order/my?limit=500&offset=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	orders.AssertExpectations(t)
}

func TestOrderHandler_GetHistory(t *testing.T) {
	userID, orderID := uuid.New(), uuid.New()
	orders := &mockOrders{}
	orders.On("GetHistory", mock.Anything, orderID, userID).Return([]models.OrderStatusChange{
		{ID: 1, OrderID: orderID, FromStatus: valueobject.OrderStatusRequested, ToStatus: valueobject.OrderStatusPaymentPending},
	}, nil)

	w, resp := call(t, orderRoutes(userID, orders), http.MethodGet, "/order/"+orderID.String()+"/history", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/creator-escrow/internal/http/middleware"
	"github.com/ignatzorin/creator-escrow/internal/http/response"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/service"
)

// testRouter подставляет субъект токена, как это делает AuthMiddleware.
func testRouter(userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if userID != uuid.Nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserIDKey, userID)
			c.Next()
		})
	}
	return r
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) CreateOrderRequest(ctx context.Context, in service.CreateOrderInput) (*models.Order, error) {
	args := m.Called(ctx, in)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Accept(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID, sellerID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Reject(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID, sellerID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID, userID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) ListMyOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) GetHistory(ctx context.Context, orderID, userID uuid.UUID) ([]models.OrderStatusChange, error) {
	args := m.Called(ctx, orderID, userID)
	h, _ := args.Get(0).([]models.OrderStatusChange)
	return h, args.Error(1)
}

func (m *mockOrders) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

type mockEscrow struct{ mock.Mock }

func (m *mockEscrow) InitiatePayment(ctx context.Context, orderID, clientID uuid.UUID) (*service.PaymentIntent, error) {
	args := m.Called(ctx, orderID, clientID)
	p, _ := args.Get(0).(*service.PaymentIntent)
	return p, args.Error(1)
}

func (m *mockEscrow) CaptureAndOpenEscrow(ctx context.Context, clientID uuid.UUID, v service.GatewayVerification) (*models.Payment, error) {
	args := m.Called(ctx, clientID, v)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Error(1)
}

func (m *mockEscrow) RequestMilestoneRelease(ctx context.Context, paymentID uuid.UUID, step int, sellerID uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, paymentID, step, sellerID)
	ms, _ := args.Get(0).(*models.Milestone)
	return ms, args.Error(1)
}

func (m *mockEscrow) ApproveMilestoneRelease(ctx context.Context, paymentID uuid.UUID, step int, clientID uuid.UUID) (*service.ReleaseResult, error) {
	args := m.Called(ctx, paymentID, step, clientID)
	r, _ := args.Get(0).(*service.ReleaseResult)
	return r, args.Error(1)
}

func (m *mockEscrow) GetPaymentForOrder(ctx context.Context, orderID, userID uuid.UUID) (*service.PaymentView, error) {
	args := m.Called(ctx, orderID, userID)
	v, _ := args.Get(0).(*service.PaymentView)
	return v, args.Error(1)
}

func (m *mockEscrow) RefundMilestone(ctx context.Context, paymentID uuid.UUID, step int, reason string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID, step, reason)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Error(1)
}

type mockPayouts struct{ mock.Mock }

func (m *mockPayouts) ComputeBalance(ctx context.Context, sellerID uuid.UUID, now time.Time) (*models.Balance, error) {
	args := m.Called(ctx, sellerID, now)
	b, _ := args.Get(0).(*models.Balance)
	return b, args.Error(1)
}

func (m *mockPayouts) RequestWithdrawal(ctx context.Context, sellerID uuid.UUID, amount decimal.Decimal) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, sellerID, amount)
	w, _ := args.Get(0).(*models.WithdrawalRequest)
	return w, args.Error(1)
}

func (m *mockPayouts) ListWithdrawals(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, sellerID, limit, offset)
	w, _ := args.Get(0).([]models.WithdrawalRequest)
	return w, args.Error(1)
}

func (m *mockPayouts) Approve(ctx context.Context, id uuid.UUID, transferReference, note string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id, transferReference, note)
	w, _ := args.Get(0).(*models.WithdrawalRequest)
	return w, args.Error(1)
}

func (m *mockPayouts) Reject(ctx context.Context, id uuid.UUID, note string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id, note)
	w, _ := args.Get(0).(*models.WithdrawalRequest)
	return w, args.Error(1)
}

type mockResolutions struct{ mock.Mock }

func (m *mockResolutions) Submit(ctx context.Context, in service.SubmitResolutionInput) (*models.Resolution, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*models.Resolution)
	return r, args.Error(1)
}

func (m *mockResolutions) ListByOrder(ctx context.Context, orderID, userID uuid.UUID) ([]models.Resolution, error) {
	args := m.Called(ctx, orderID, userID)
	r, _ := args.Get(0).([]models.Resolution)
	return r, args.Error(1)
}

func (m *mockResolutions) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Resolution, error) {
	args := m.Called(ctx, id, status)
	r, _ := args.Get(0).(*models.Resolution)
	return r, args.Error(1)
}

type mockChat struct{ mock.Mock }

func (m *mockChat) Append(ctx context.Context, orderID, senderID uuid.UUID, text string) (*models.ChatMessage, error) {
	args := m.Called(ctx, orderID, senderID, text)
	msg, _ := args.Get(0).(*models.ChatMessage)
	return msg, args.Error(1)
}

func (m *mockChat) List(ctx context.Context, orderID, userID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, orderID, userID, limit, offset)
	msgs, _ := args.Get(0).([]models.ChatMessage)
	return msgs, args.Error(1)
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/validation"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to valueobject.OrderStatus) (bool, error)
	AttachPayment(ctx context.Context, id, paymentID uuid.UUID) (bool, error)
}

// OrderHistoryRepository - журнал статусов заказа.
type OrderHistoryRepository interface {
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error)
}

type SellerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	UpdateRating(ctx context.Context, id uuid.UUID, stats models.RatingStats) error
}

// CreateOrderInput - заявка бренда на кампанию.
type CreateOrderInput struct {
	SellerID     uuid.UUID
	ClientID     uuid.UUID
	Platform     string
	ServiceType  string
	Terms        models.ServiceTerms
	Brief        models.ClientBrief
	DeliveryDate *time.Time
}

// OrderService ведёт жизненный цикл заказа. Все смены статуса выполняются
// условным UPDATE по текущему статусу, поэтому из двух конкурирующих переходов побеждает один.
type OrderService struct {
	orders   OrderRepository
	sellers  SellerRepository
	history  OrderHistoryRepository
	notifier Notifier
}

func NewOrderService(orders OrderRepository, sellers SellerRepository, history OrderHistoryRepository, notifier Notifier) *OrderService {
	return &OrderService{orders: orders, sellers: sellers, history: history, notifier: notifier}
}

// CreateOrderRequest создаёт заказ в статусе requested.
func (s *OrderService) CreateOrderRequest(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	seller, err := s.sellers.GetByID(ctx, in.SellerID)
	if err != nil {
		return nil, failure("create_order", "seller_id", in.SellerID, err)
	}

	order := &models.Order{
		ID:           uuid.New(),
		SellerID:     seller.ID,
		ClientID:     in.ClientID,
		SellerName:   seller.DisplayName,
		Platform:     in.Platform,
		ServiceType:  strings.TrimSpace(in.ServiceType),
		Terms:        in.Terms,
		Brief:        in.Brief,
		TotalAmount:  in.Terms.Amount,
		Status:       valueobject.OrderStatusRequested,
		DeliveryDate: in.DeliveryDate,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, failure("create_order", "order_id", order.ID, err)
	}

	notify(s.notifier, order.SellerID, EventOrderRequested, order)
	return order, nil
}

func validateOrderInput(in CreateOrderInput) error {
	if in.SellerID == in.ClientID {
		return apperror.Validation("нельзя оформить заказ у самого себя")
	}
	if _, ok := models.ValidPlatforms[in.Platform]; !ok {
		return apperror.Validation("неизвестная платформа")
	}
	if _, err := valueobject.NewAmount(in.Terms.Amount); err != nil {
		return err
	}

	checks := []error{
		validation.ValidateText("тип услуги", in.ServiceType, validation.MaxServiceTypeLength),
		validation.ValidateRange("срок в днях", in.Terms.TimelineDays, 1, validation.MaxTimelineDays),
		validation.ValidateRange("число правок", in.Terms.Revisions, 0, validation.MaxRevisions),
		validation.ValidateDeliverables(in.Terms.Deliverables),
		validation.ValidateText("название бренда", in.Brief.BrandName, validation.MaxBrandNameLength),
		validation.ValidateEmail(in.Brief.ContactEmail),
		validation.ValidateText("цели кампании", in.Brief.Goals, validation.MaxGoalsLength),
		validation.ValidateLength("особые требования", in.Brief.SpecialRequirements, 0, validation.MaxRequirementsLength),
	}
	for _, err := range checks {
		if err != nil {
			return apperror.Validation(err.Error())
		}
	}
	if in.Brief.Budget.IsNegative() {
		return apperror.InvalidAmount("бюджет не может быть отрицательным")
	}
	return nil
}

// Accept переводит заказ requested → payment_pending. Доступно только исполнителю.
func (s *OrderService) Accept(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Order, error) {
	return s.decide(ctx, "accept_order", orderID, sellerID, valueobject.OrderStatusPaymentPending, EventOrderAccepted)
}

// Reject переводит заказ requested → rejected.
func (s *OrderService) Reject(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Order, error) {
	return s.decide(ctx, "reject_order", orderID, sellerID, valueobject.OrderStatusRejected, EventOrderRejected)
}

func (s *OrderService) decide(ctx context.Context, op string, orderID, sellerID uuid.UUID, to valueobject.OrderStatus, event string) (*models.Order, error) {
	order, err := loadOrder(ctx, s.orders, op, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsSeller(sellerID) {
		return nil, apperror.ErrNotOrderSeller
	}
	if order.Status != valueobject.OrderStatusRequested {
		return nil, apperror.InvalidTransition("заказ уже обработан")
	}

	ok, err := s.orders.TransitionStatus(ctx, order.ID, valueobject.OrderStatusRequested, to)
	if err != nil {
		return nil, failure(op, "order_id", order.ID, err)
	}
	if !ok {
		return nil, apperror.InvalidTransition("заказ уже обработан")
	}

	order.Status = to
	notify(s.notifier, order.ClientID, event, order)
	return order, nil
}

// OnPaymentCaptured активирует заказ и привязывает принятый платёж.
// Вызывается эскроу внутри транзакции подтверждения оплаты.
func (s *OrderService) OnPaymentCaptured(ctx context.Context, orderID, paymentID uuid.UUID) error {
	ok, err := s.orders.AttachPayment(ctx, orderID, paymentID)
	if err != nil {
		return failure("attach_payment", "order_id", orderID, err)
	}
	if !ok {
		return apperror.InvalidTransition("заказ не ожидает оплаты")
	}
	return nil
}

// MarkCompleted - active → completed, по отзыву клиента.
func (s *OrderService) MarkCompleted(ctx context.Context, orderID uuid.UUID) error {
	return s.advance(ctx, "complete_order", orderID, valueobject.OrderStatusActive, valueobject.OrderStatusCompleted)
}

// MarkDisputed - active → disputed, по запросу на возврат.
func (s *OrderService) MarkDisputed(ctx context.Context, orderID uuid.UUID) error {
	return s.advance(ctx, "dispute_order", orderID, valueobject.OrderStatusActive, valueobject.OrderStatusDisputed)
}

// Cancel - active → cancelled, решение администратора.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if err := s.advance(ctx, "cancel_order", orderID, valueobject.OrderStatusActive, valueobject.OrderStatusCancelled); err != nil {
		return nil, err
	}
	order, err := loadOrder(ctx, s.orders, "cancel_order", orderID)
	if err != nil {
		return nil, err
	}
	notify(s.notifier, order.ClientID, EventOrderCancelled, order)
	notify(s.notifier, order.SellerID, EventOrderCancelled, order)
	return order, nil
}

func (s *OrderService) advance(ctx context.Context, op string, orderID uuid.UUID, from, to valueobject.OrderStatus) error {
	ok, err := s.orders.TransitionStatus(ctx, orderID, from, to)
	if err != nil {
		return failure(op, "order_id", orderID, err)
	}
	if ok {
		return nil
	}
	// Переход не применён: либо заказа нет, либо статус уже другой.
	if _, err := loadOrder(ctx, s.orders, op, orderID); err != nil {
		return err
	}
	return apperror.InvalidTransition("действие недоступно в текущем статусе заказа")
}

// GetOrder возвращает заказ его участнику.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := loadOrder(ctx, s.orders, "get_order", orderID)
	if err != nil {
		return nil, err
	}
	if order.RoleOf(userID) == "" {
		return nil, apperror.ErrNotParticipant
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	limit, offset = normalizePage(limit, offset)
	orders, err := s.orders.ListByParticipant(ctx, userID, limit, offset)
	if err != nil {
		return nil, failure("list_orders", "user_id", userID, err)
	}
	return orders, nil
}

// GetHistory возвращает журнал смены статусов заказа его участнику.
func (s *OrderService) GetHistory(ctx context.Context, orderID, userID uuid.UUID) ([]models.OrderStatusChange, error) {
	if _, err := s.GetOrder(ctx, orderID, userID); err != nil {
		return nil, err
	}
	history, err := s.history.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, failure("order_history", "order_id", orderID, err)
	}
	return history, nil
}

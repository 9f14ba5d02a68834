package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/gateway"
	"github.com/ignatzorin/creator-escrow/internal/logger"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/observability"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/repository"
	"github.com/ignatzorin/creator-escrow/internal/validation"
)

type PaymentRepository interface {
	CreateIntent(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	GetLiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	MarkCaptured(ctx context.Context, p *models.Payment) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	InsertMilestones(ctx context.Context, milestones []models.Milestone) error
	TransitionMilestone(ctx context.Context, t repository.MilestoneTransition) (bool, error)
	MoveFunds(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, to repository.FundsBucket) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.PaymentStatus) error
}

// OrderLifecycle - часть жизненного цикла заказа, которую вызывает эскроу.
type OrderLifecycle interface {
	OnPaymentCaptured(ctx context.Context, orderID, paymentID uuid.UUID) error
}

// EscrowPolicy - параметры площадки для новых платежей.
type EscrowPolicy struct {
	Currency       string
	FeePercent     decimal.Decimal
	MilestoneCount int
	KeyID          string
}

// PaymentIntent - данные для открытия формы оплаты на клиенте.
type PaymentIntent struct {
	PaymentID      uuid.UUID `json:"payment_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	KeyID          string    `json:"key_id"`
}

// GatewayVerification - подтверждение оплаты, которое клиент получил от шлюза.
type GatewayVerification struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// ReleaseResult - итог выплаты этапа.
type ReleaseResult struct {
	Payment     *models.Payment  `json:"payment"`
	Milestone   models.Milestone `json:"milestone"`
	AllReleased bool             `json:"all_released"`
}

// PaymentView - платёж заказа вместе с признаком полной выплаты.
type PaymentView struct {
	*models.Payment
	AllReleased bool `json:"all_released"`
}

var errCaptureLost = errors.New("escrow: capture already applied")

type EscrowOption func(*EscrowService)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) EscrowOption {
	return func(s *EscrowService) { s.now = now }
}

// EscrowService ведёт эскроу-счёт заказа и выплату этапов.
// Все переходы этапов одного платежа выполняются под блокировкой строки платежа.
type EscrowService struct {
	tx        Transactor
	orders    OrderReader
	lifecycle OrderLifecycle
	payments  PaymentRepository
	gateway   gateway.Gateway
	policy    EscrowPolicy
	notifier  Notifier
	metrics   *observability.EscrowMetrics
	now       func() time.Time
}

func NewEscrowService(
	tx Transactor,
	orders OrderReader,
	lifecycle OrderLifecycle,
	payments PaymentRepository,
	gw gateway.Gateway,
	policy EscrowPolicy,
	notifier Notifier,
	opts ...EscrowOption,
) *EscrowService {
	s := &EscrowService{
		tx:        tx,
		orders:    orders,
		lifecycle: lifecycle,
		payments:  payments,
		gateway:   gw,
		policy:    policy,
		notifier:  notifier,
		metrics:   observability.Escrow(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitiatePayment выставляет счёт в шлюзе на сумму заказа.
// Повторный вызов возвращает уже открытый счёт.
func (s *EscrowService) InitiatePayment(ctx context.Context, orderID, clientID uuid.UUID) (*PaymentIntent, error) {
	const op = "initiate_payment"

	order, err := loadOrder(ctx, s.orders, op, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsClient(clientID) {
		return nil, apperror.ErrNotOrderClient
	}
	if order.Status != valueobject.OrderStatusPaymentPending {
		return nil, apperror.InvalidTransition("заказ не ожидает оплаты")
	}
	if err := s.ensureSplittable(order.TotalAmount); err != nil {
		return nil, err
	}

	if intent, err := s.openIntent(ctx, order.ID); intent != nil || err != nil {
		return intent, err
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, gateway.CreateOrderRequest{
		Amount:   valueobject.ToMinorUnits(order.TotalAmount),
		Currency: s.policy.Currency,
		Receipt:  order.ID.String(),
		Notes:    map[string]string{"order_id": order.ID.String()},
	})
	if err != nil {
		return nil, failure(op, "order_id", order.ID, apperror.Gateway(err))
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		OrderID:        order.ID,
		GatewayOrderID: gwOrder.ID,
		Currency:       s.policy.Currency,
		TotalAmount:    order.TotalAmount,
		Status:         valueobject.PaymentStatusCreated,
	}
	if err := s.payments.CreateIntent(ctx, payment); err != nil {
		// Параллельный initiate успел создать счёт первым.
		if intent, lookupErr := s.openIntent(ctx, order.ID); intent != nil {
			return intent, nil
		} else if lookupErr != nil {
			return nil, lookupErr
		}
		return nil, failure(op, "order_id", order.ID, err)
	}

	return s.intentOf(payment), nil
}

// ensureSplittable проверяет, что доля исполнителя даёт каждому этапу хотя бы одну минимальную единицу.
func (s *EscrowService) ensureSplittable(total decimal.Decimal) error {
	split := valueobject.SplitFee(total, s.policy.FeePercent)
	if valueobject.ToMinorUnits(split.SellerPayable) < int64(s.policy.MilestoneCount) {
		return apperror.InvalidAmount(fmt.Sprintf("сумма заказа слишком мала для %d этапов", s.policy.MilestoneCount))
	}
	return nil
}

// openIntent возвращает открытый счёт заказа, если он есть.
func (s *EscrowService) openIntent(ctx context.Context, orderID uuid.UUID) (*PaymentIntent, error) {
	existing, err := s.payments.GetLiveByOrderID(ctx, orderID)
	switch {
	case errors.Is(err, apperror.ErrPaymentNotFound):
		return nil, nil
	case err != nil:
		return nil, failure("initiate_payment", "order_id", orderID, err)
	case existing.Status != valueobject.PaymentStatusCreated:
		return nil, apperror.InvalidTransition("заказ уже оплачен")
	}
	return s.intentOf(existing), nil
}

func (s *EscrowService) intentOf(p *models.Payment) *PaymentIntent {
	return &PaymentIntent{
		PaymentID:      p.ID,
		GatewayOrderID: p.GatewayOrderID,
		Amount:         valueobject.ToMinorUnits(p.TotalAmount),
		Currency:       p.Currency,
		KeyID:          s.policy.KeyID,
	}
}

// CaptureAndOpenEscrow проверяет подтверждение шлюза, делит сумму на комиссию и долю исполнителя,
// создаёт этапы и активирует заказ. Повтор с тем же платежом шлюза возвращает уже принятый платёж.
func (s *EscrowService) CaptureAndOpenEscrow(ctx context.Context, clientID uuid.UUID, v GatewayVerification) (*models.Payment, error) {
	const op = "capture_payment"

	if strings.TrimSpace(v.GatewayOrderID) == "" || strings.TrimSpace(v.GatewayPaymentID) == "" || strings.TrimSpace(v.Signature) == "" {
		return nil, apperror.Validation("не переданы данные подтверждения оплаты")
	}

	payment, err := s.payments.GetByGatewayOrderID(ctx, v.GatewayOrderID)
	if err != nil {
		return nil, failure(op, "gateway_order_id", v.GatewayOrderID, err)
	}
	order, err := loadOrder(ctx, s.orders, op, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsClient(clientID) {
		return nil, apperror.ErrNotOrderClient
	}

	switch {
	case payment.Status == valueobject.PaymentStatusFailed:
		return nil, apperror.InvalidTransition("попытка оплаты закрыта, начните оплату заново")
	case payment.Status.HoldsFunds():
		return s.alreadyCaptured(payment, v.GatewayPaymentID)
	}

	if !s.gateway.VerifyPaymentSignature(v.GatewayOrderID, v.GatewayPaymentID, v.Signature) {
		return nil, s.rejectCapture(ctx, payment, "подпись шлюза не совпадает")
	}

	charge, err := s.gateway.FetchPayment(ctx, v.GatewayPaymentID)
	if err != nil {
		return nil, failure(op, "payment_id", payment.ID, apperror.Gateway(err))
	}
	if reason := mismatch(payment, charge); reason != "" {
		return nil, s.rejectCapture(ctx, payment, reason)
	}

	now := s.now().UTC()
	split := valueobject.SplitFee(payment.TotalAmount, s.policy.FeePercent)
	payment.GatewayPaymentID = &v.GatewayPaymentID
	payment.GatewaySignature = &v.Signature
	payment.PlatformFee = split.PlatformFee
	payment.SellerAmount = split.SellerPayable
	payment.CapturedAt = &now
	milestones := buildMilestones(payment.ID, split.SellerPayable, s.policy.MilestoneCount, now)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.payments.MarkCaptured(ctx, payment)
		if err != nil {
			return err
		}
		if !ok {
			return errCaptureLost
		}
		if err := s.payments.InsertMilestones(ctx, milestones); err != nil {
			return err
		}
		return s.lifecycle.OnPaymentCaptured(ctx, order.ID, payment.ID)
	})
	if errors.Is(err, errCaptureLost) {
		current, getErr := s.payments.GetByID(ctx, payment.ID)
		if getErr != nil {
			return nil, failure(op, "payment_id", payment.ID, getErr)
		}
		return s.alreadyCaptured(current, v.GatewayPaymentID)
	}
	if err != nil {
		return nil, failure(op, "payment_id", payment.ID, err)
	}

	s.metrics.Capture("captured")
	logger.Operation(op, "payment_id", payment.ID).
		WithField("order_id", order.ID).
		WithField("amount", payment.TotalAmount.String()).
		Info("оплата принята, эскроу открыт")

	captured, err := s.payments.GetByID(ctx, payment.ID)
	if err != nil {
		return nil, failure(op, "payment_id", payment.ID, err)
	}
	notify(s.notifier, order.SellerID, EventPaymentCaptured, captured)
	return captured, nil
}

func (s *EscrowService) alreadyCaptured(p *models.Payment, gatewayPaymentID string) (*models.Payment, error) {
	if p.Status.HoldsFunds() && p.GatewayPaymentID != nil && *p.GatewayPaymentID == gatewayPaymentID {
		return p, nil
	}
	return nil, apperror.InvalidTransition("платёж по заказу уже принят")
}

// rejectCapture закрывает попытку оплаты. Повторять её нельзя, клиент начинает оплату заново.
func (s *EscrowService) rejectCapture(ctx context.Context, p *models.Payment, reason string) error {
	s.metrics.Capture("verification_failed")
	entry := logger.Operation("capture_payment", "payment_id", p.ID).WithField("reason", reason)
	if err := s.payments.MarkFailed(ctx, p.ID, reason); err != nil {
		entry.WithError(err).Error("не удалось закрыть попытку оплаты")
	}
	entry.Warn("подтверждение оплаты отклонено")
	return apperror.ErrPaymentVerificationFailed
}

// mismatch сверяет платёж шлюза с выставленным счётом.
func mismatch(p *models.Payment, charge *gateway.Payment) string {
	switch {
	case charge.OrderID != p.GatewayOrderID:
		return "платёж относится к другому счёту"
	case charge.Amount != valueobject.ToMinorUnits(p.TotalAmount):
		return fmt.Sprintf("сумма %d не совпадает со счётом", charge.Amount)
	case charge.Currency != "" && !strings.EqualFold(charge.Currency, p.Currency):
		return "валюта не совпадает со счётом"
	case !charge.Captured():
		return fmt.Sprintf("платёж в статусе %q", charge.Status)
	}
	return ""
}

// buildMilestones делит долю исполнителя на n равных этапов. Первый этап сразу ждёт
// подтверждения клиента: принятие заказа уже закрывает стартовое обязательство.
func buildMilestones(paymentID uuid.UUID, sellerPayable decimal.Decimal, n int, now time.Time) []models.Milestone {
	shares := valueobject.SplitEqual(sellerPayable, n)
	milestones := make([]models.Milestone, 0, len(shares))
	for i, amount := range shares {
		step := i + 1
		m := models.Milestone{
			ID:        uuid.New(),
			PaymentID: paymentID,
			Step:      step,
			Name:      milestoneName(step, n),
			Amount:    amount,
			Status:    valueobject.MilestoneStatusLocked,
			CreatedAt: now,
		}
		if step == 1 {
			requested := now
			m.Status = valueobject.MilestoneStatusPendingApproval
			m.RequestedAt = &requested
		}
		milestones = append(milestones, m)
	}
	return milestones
}

func milestoneName(step, n int) string {
	switch {
	case step == 1:
		return "Старт"
	case step == n:
		return "Финальная сдача"
	}
	return fmt.Sprintf("Этап %d", step)
}

// RequestMilestoneRelease - запрос исполнителя на выплату следующего этапа.
// Этапы запрашиваются строго по порядку.
func (s *EscrowService) RequestMilestoneRelease(ctx context.Context, paymentID uuid.UUID, step int, sellerID uuid.UUID) (*models.Milestone, error) {
	const op = "request_release"

	order, err := s.orderOfPayment(ctx, op, paymentID)
	if err != nil {
		return nil, err
	}
	if !order.IsSeller(sellerID) {
		return nil, apperror.ErrNotOrderSeller
	}
	if err := ensureReleaseRequestable(order); err != nil {
		return nil, err
	}

	var requested models.Milestone
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		m := p.MilestoneByStep(step)
		if m == nil {
			return apperror.ErrMilestoneNotFound
		}
		if m.Status != valueobject.MilestoneStatusLocked {
			return apperror.InvalidTransition("этап не ожидает запроса на выплату")
		}
		for _, prior := range p.Milestones {
			if prior.Step < step && !prior.Status.IsSettled() {
				return apperror.InvalidTransition("сначала должны быть закрыты предыдущие этапы")
			}
		}

		now := s.now().UTC()
		ok, err := s.payments.TransitionMilestone(ctx, repository.MilestoneTransition{
			MilestoneID: m.ID,
			From:        valueobject.MilestoneStatusLocked,
			To:          valueobject.MilestoneStatusPendingApproval,
			At:          now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperror.InvalidTransition("этап не ожидает запроса на выплату")
		}
		m.Status = valueobject.MilestoneStatusPendingApproval
		m.RequestedAt = &now
		requested = *m
		return nil
	})
	if err != nil {
		return nil, failure(op, "payment_id", paymentID, err)
	}

	s.metrics.MilestoneTransition(string(valueobject.MilestoneStatusPendingApproval))
	notify(s.notifier, order.ClientID, EventMilestoneRequested, requested)
	return &requested, nil
}

// ApproveMilestoneRelease - подтверждение клиента. Перевод исполнителю выполняется
// в той же транзакции, что и запись статуса этапа и движение денег.
// Статус заказа не проверяется: этап, уже ждущий подтверждения, можно выплатить и по спорному
// или отменённому заказу, вернуть его нельзя.
func (s *EscrowService) ApproveMilestoneRelease(ctx context.Context, paymentID uuid.UUID, step int, clientID uuid.UUID) (*ReleaseResult, error) {
	const op = "approve_release"

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, failure(op, "payment_id", paymentID, err)
	}
	order, err := loadOrder(ctx, s.orders, op, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsClient(clientID) {
		return nil, apperror.ErrNotOrderClient
	}
	if !payment.Status.HoldsFunds() {
		return nil, apperror.InvalidTransition("по платежу не приняты деньги")
	}
	if m := payment.MilestoneByStep(step); m == nil {
		return nil, apperror.ErrMilestoneNotFound
	} else if m.Status != valueobject.MilestoneStatusPendingApproval {
		return nil, apperror.InvalidTransition("этап не ожидает подтверждения")
	}

	var released models.Milestone
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		m := p.MilestoneByStep(step)
		if m == nil {
			return apperror.ErrMilestoneNotFound
		}
		if m.Status != valueobject.MilestoneStatusPendingApproval {
			return apperror.InvalidTransition("этап не ожидает подтверждения")
		}
		if p.GatewayPaymentID == nil {
			return fmt.Errorf("payment %s has no gateway payment id", p.ID)
		}

		transfer, err := s.gateway.Transfer(ctx, gateway.TransferRequest{
			IdempotencyKey: "release:" + m.ID.String(),
			PaymentID:      *p.GatewayPaymentID,
			Account:        order.SellerID.String(),
			Amount:         valueobject.ToMinorUnits(m.Amount),
			Currency:       p.Currency,
			Notes:          map[string]string{"order_id": order.ID.String(), "step": fmt.Sprint(step)},
		})
		if err != nil {
			return apperror.Gateway(err)
		}

		now := s.now().UTC()
		if err := s.settle(ctx, p, m, settlement{
			to:     valueobject.MilestoneStatusReleased,
			bucket: repository.BucketReleased,
			at:     now,
			ref:    transfer.ID,
		}); err != nil {
			return err
		}
		released = *m
		return nil
	})
	if err != nil {
		return nil, failure(op, "payment_id", paymentID, err)
	}

	s.metrics.MilestoneTransition(string(valueobject.MilestoneStatusReleased))
	s.metrics.FundsMoved(string(repository.BucketReleased), released.Amount)

	current, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, failure(op, "payment_id", paymentID, err)
	}
	result := &ReleaseResult{Payment: current, Milestone: released, AllReleased: current.AllMilestonesReleased()}

	notify(s.notifier, order.SellerID, EventMilestoneReleased, released)
	if result.AllReleased {
		notify(s.notifier, order.SellerID, EventPaymentFullyReleased, current)
		notify(s.notifier, order.ClientID, EventPaymentFullyReleased, current)
	}
	return result, nil
}

// RefundMilestone возвращает клиенту заблокированный этап. Выплаченные этапы не возвращаются.
func (s *EscrowService) RefundMilestone(ctx context.Context, paymentID uuid.UUID, step int, reason string) (*models.Payment, error) {
	const op = "refund_milestone"

	reason = strings.TrimSpace(reason)
	if err := validation.ValidateText("причина возврата", reason, validation.MaxRefundReasonLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	var refunded models.Milestone
	var orderID uuid.UUID
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		orderID = p.OrderID
		if !p.Status.HoldsFunds() {
			return apperror.InvalidTransition("по платежу не приняты деньги")
		}
		m := p.MilestoneByStep(step)
		if m == nil {
			return apperror.ErrMilestoneNotFound
		}
		if m.Status != valueobject.MilestoneStatusLocked {
			return apperror.InvalidTransition("вернуть можно только заблокированный этап")
		}
		if p.GatewayPaymentID == nil {
			return fmt.Errorf("payment %s has no gateway payment id", p.ID)
		}

		refund, err := s.gateway.Refund(ctx, gateway.RefundRequest{
			IdempotencyKey: "refund:" + m.ID.String(),
			PaymentID:      *p.GatewayPaymentID,
			Amount:         valueobject.ToMinorUnits(m.Amount),
			Notes:          map[string]string{"reason": reason},
		})
		if err != nil {
			return apperror.Gateway(err)
		}

		if err := s.settle(ctx, p, m, settlement{
			to:     valueobject.MilestoneStatusRefunded,
			bucket: repository.BucketRefunded,
			at:     s.now().UTC(),
			ref:    refund.ID,
			reason: &reason,
		}); err != nil {
			return err
		}
		refunded = *m
		return nil
	})
	if err != nil {
		return nil, failure(op, "payment_id", paymentID, err)
	}

	s.metrics.MilestoneTransition(string(valueobject.MilestoneStatusRefunded))
	s.metrics.FundsMoved(string(repository.BucketRefunded), refunded.Amount)
	logger.Operation(op, "payment_id", paymentID).
		WithField("step", step).
		WithField("amount", refunded.Amount.String()).
		Info("этап возвращён клиенту")

	current, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, failure(op, "payment_id", paymentID, err)
	}
	if order, err := s.orders.GetByID(ctx, orderID); err == nil {
		notify(s.notifier, order.ClientID, EventMilestoneRefunded, refunded)
		notify(s.notifier, order.SellerID, EventMilestoneRefunded, refunded)
	}
	return current, nil
}

type settlement struct {
	to     valueobject.MilestoneStatus
	bucket repository.FundsBucket
	at     time.Time
	ref    string
	reason *string
}

// settle закрывает этап: условный переход статуса, перенос суммы из эскроу
// и пересчёт статуса платежа. Вызывается только внутри транзакции с заблокированным платежом.
func (s *EscrowService) settle(ctx context.Context, p *models.Payment, m *models.Milestone, st settlement) error {
	from := m.Status
	ok, err := s.payments.TransitionMilestone(ctx, repository.MilestoneTransition{
		MilestoneID: m.ID,
		From:        from,
		To:          st.to,
		At:          st.at,
		ExternalRef: &st.ref,
		Reason:      st.reason,
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperror.InvalidTransition("этап уже обработан")
	}

	moved, err := s.payments.MoveFunds(ctx, p.ID, m.Amount, st.bucket)
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("escrow balance of payment %s is below %s", p.ID, m.Amount)
	}

	m.Status = st.to
	m.ExternalRef = &st.ref
	m.RefundReason = st.reason
	if st.to == valueobject.MilestoneStatusReleased {
		m.ReleasedAt = &st.at
	} else {
		m.RefundedAt = &st.at
	}

	if next := p.SettlementStatus(); next != p.Status {
		if err := s.payments.UpdateStatus(ctx, p.ID, next); err != nil {
			return err
		}
		p.Status = next
	}
	return nil
}

// GetPaymentForOrder возвращает платёж заказа его участнику.
func (s *EscrowService) GetPaymentForOrder(ctx context.Context, orderID, userID uuid.UUID) (*PaymentView, error) {
	order, err := loadOrder(ctx, s.orders, "get_payment", orderID)
	if err != nil {
		return nil, err
	}
	if order.RoleOf(userID) == "" {
		return nil, apperror.ErrNotParticipant
	}
	payment, err := s.payments.GetLiveByOrderID(ctx, orderID)
	if err != nil {
		return nil, failure("get_payment", "order_id", orderID, err)
	}
	return &PaymentView{Payment: payment, AllReleased: payment.AllMilestonesReleased()}, nil
}

func (s *EscrowService) orderOfPayment(ctx context.Context, op string, paymentID uuid.UUID) (*models.Order, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, failure(op, "payment_id", paymentID, err)
	}
	return loadOrder(ctx, s.orders, op, payment.OrderID)
}

// ensureReleaseRequestable: новые этапы запрашиваются только по активному или завершённому заказу.
// Оставшиеся этапы спорного или отменённого заказа возвращает администратор.
func ensureReleaseRequestable(order *models.Order) error {
	switch order.Status {
	case valueobject.OrderStatusActive, valueobject.OrderStatusCompleted:
		return nil
	}
	return apperror.InvalidTransition("по заказу в статусе " + string(order.Status) + " запрос выплаты недоступен")
}

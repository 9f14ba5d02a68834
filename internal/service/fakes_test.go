package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/gateway"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/repository"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
)

// memStore - хранилище в памяти с условными обновлениями, как у репозиториев на PostgreSQL.
type memStore struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]models.Order
	sellers     map[uuid.UUID]models.Seller
	payments    map[uuid.UUID]models.Payment
	milestones  map[uuid.UUID]models.Milestone
	withdrawals map[uuid.UUID]models.WithdrawalRequest
	resolutions map[uuid.UUID]models.Resolution
	messages    []models.ChatMessage
	history     []models.OrderStatusChange

	rows sync.Map // uuid.UUID -> *sync.Mutex, блокировки строк FOR UPDATE
}

func newMemStore() *memStore {
	return &memStore{
		orders:      make(map[uuid.UUID]models.Order),
		sellers:     make(map[uuid.UUID]models.Seller),
		payments:    make(map[uuid.UUID]models.Payment),
		milestones:  make(map[uuid.UUID]models.Milestone),
		withdrawals: make(map[uuid.UUID]models.WithdrawalRequest),
		resolutions: make(map[uuid.UUID]models.Resolution),
	}
}

type txLocksKey struct{}

// txLocks - строки, заблокированные текущей транзакцией.
type txLocks struct {
	held   []uuid.UUID
	unlock []func()
}

// fakeTx снимает блокировки строк, взятые через GetByIDForUpdate, только после завершения fn.
type fakeTx struct{}

func (fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txLocksKey{}).(*txLocks); ok {
		return fn(ctx)
	}
	locks := &txLocks{}
	defer func() {
		for i := len(locks.unlock) - 1; i >= 0; i-- {
			locks.unlock[i]()
		}
	}()
	return fn(context.WithValue(ctx, txLocksKey{}, locks))
}

// lockRow ведёт себя как SELECT ... FOR UPDATE: вне транзакции ничего не блокирует.
func (s *memStore) lockRow(ctx context.Context, id uuid.UUID) {
	locks, ok := ctx.Value(txLocksKey{}).(*txLocks)
	if !ok {
		return
	}
	for _, held := range locks.held {
		if held == id {
			return
		}
	}
	v, _ := s.rows.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	locks.held = append(locks.held, id)
	locks.unlock = append(locks.unlock, mu.Unlock)
}

// --- orders ---

type fakeOrders struct{ *memStore }

func (f fakeOrders) Create(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.orders[order.ID] = *order
	return nil
}

func (f fakeOrders) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return &o, nil
}

func (f fakeOrders) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Order
	for _, o := range f.orders {
		if o.SellerID == userID || o.ClientID == userID {
			list = append(list, o)
		}
	}
	return list, nil
}

func (f fakeOrders) TransitionStatus(ctx context.Context, id uuid.UUID, from, to valueobject.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	f.orders[id] = o
	f.record(id, from, to)
	return true, nil
}

func (f fakeOrders) AttachPayment(ctx context.Context, id, paymentID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != valueobject.OrderStatusPaymentPending || o.PaymentID != nil {
		return false, nil
	}
	o.Status = valueobject.OrderStatusActive
	o.PaymentID = &paymentID
	f.orders[id] = o
	f.record(id, valueobject.OrderStatusPaymentPending, valueobject.OrderStatusActive)
	return true, nil
}

// record вызывается под f.mu.
func (f fakeOrders) record(id uuid.UUID, from, to valueobject.OrderStatus) {
	f.history = append(f.history, models.OrderStatusChange{
		ID:         int64(len(f.history) + 1),
		OrderID:    id,
		FromStatus: from,
		ToStatus:   to,
	})
}

type fakeOrderHistory struct{ *memStore }

func (f fakeOrderHistory) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.OrderStatusChange
	for _, h := range f.history {
		if h.OrderID == orderID {
			list = append(list, h)
		}
	}
	return list, nil
}

// --- sellers ---

type fakeSellers struct{ *memStore }

func (f fakeSellers) GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sellers[id]
	if !ok {
		return nil, apperror.ErrSellerNotFound
	}
	return &s, nil
}

func (f fakeSellers) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	f.lockRow(ctx, id)
	return f.GetByID(ctx, id)
}

func (f fakeSellers) UpdateRating(ctx context.Context, id uuid.UUID, stats models.RatingStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sellers[id]
	s.Rating = stats.Average
	s.ReviewCount = stats.Count
	f.sellers[id] = s
	return nil
}

// --- payments ---

type fakePayments struct{ *memStore }

func (f fakePayments) withMilestones(p models.Payment) *models.Payment {
	p.Milestones = nil
	for _, m := range f.milestones {
		if m.PaymentID == p.ID {
			p.Milestones = append(p.Milestones, m)
		}
	}
	sort.Slice(p.Milestones, func(i, j int) bool { return p.Milestones[i].Step < p.Milestones[j].Step })
	return &p
}

func (f fakePayments) CreateIntent(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payments {
		if existing.OrderID == p.OrderID && existing.Status != valueobject.PaymentStatusFailed {
			return common.ErrAlreadyExists
		}
	}
	p.CreatedAt = time.Now()
	f.payments[p.ID] = *p
	return nil
}

func (f fakePayments) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, apperror.ErrPaymentNotFound
	}
	return f.withMilestones(p), nil
}

func (f fakePayments) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	f.lockRow(ctx, id)
	return f.GetByID(ctx, id)
}

func (f fakePayments) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	return f.find(func(p models.Payment) bool { return p.GatewayOrderID == gatewayOrderID })
}

func (f fakePayments) GetLiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return f.find(func(p models.Payment) bool {
		return p.OrderID == orderID && p.Status != valueobject.PaymentStatusFailed
	})
}

func (f fakePayments) find(match func(models.Payment) bool) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if match(p) {
			return f.withMilestones(p), nil
		}
	}
	return nil, apperror.ErrPaymentNotFound
}

func (f fakePayments) MarkCaptured(ctx context.Context, p *models.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.payments[p.ID]
	if !ok || cur.Status != valueobject.PaymentStatusCreated {
		return false, nil
	}
	cur.Status = valueobject.PaymentStatusCaptured
	cur.GatewayPaymentID = p.GatewayPaymentID
	cur.GatewaySignature = p.GatewaySignature
	cur.PlatformFee = p.PlatformFee
	cur.SellerAmount = p.SellerAmount
	cur.AmountInEscrow = cur.TotalAmount
	cur.CapturedAt = p.CapturedAt
	f.payments[p.ID] = cur
	return true, nil
}

func (f fakePayments) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.payments[id]
	if cur.Status == valueobject.PaymentStatusCreated {
		cur.Status = valueobject.PaymentStatusFailed
		cur.FailureReason = &reason
		f.payments[id] = cur
	}
	return nil
}

func (f fakePayments) InsertMilestones(ctx context.Context, milestones []models.Milestone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range milestones {
		f.milestones[m.ID] = m
	}
	return nil
}

func (f fakePayments) TransitionMilestone(ctx context.Context, t repository.MilestoneTransition) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.milestones[t.MilestoneID]
	if !ok || m.Status != t.From {
		return false, nil
	}
	at := t.At
	switch t.To {
	case valueobject.MilestoneStatusPendingApproval:
		m.RequestedAt = &at
	case valueobject.MilestoneStatusReleased:
		m.ReleasedAt = &at
	case valueobject.MilestoneStatusRefunded:
		m.RefundedAt = &at
	default:
		return false, fmt.Errorf("unsupported target %q", t.To)
	}
	m.Status = t.To
	if t.ExternalRef != nil {
		m.ExternalRef = t.ExternalRef
	}
	if t.Reason != nil {
		m.RefundReason = t.Reason
	}
	f.milestones[m.ID] = m
	return true, nil
}

func (f fakePayments) MoveFunds(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, to repository.FundsBucket) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.payments[paymentID]
	if p.AmountInEscrow.LessThan(amount) {
		return false, nil
	}
	p.AmountInEscrow = p.AmountInEscrow.Sub(amount)
	switch to {
	case repository.BucketReleased:
		p.AmountReleased = p.AmountReleased.Add(amount)
	case repository.BucketRefunded:
		p.AmountRefunded = p.AmountRefunded.Add(amount)
	}
	f.payments[paymentID] = p
	return true, nil
}

func (f fakePayments) UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.payments[id]
	p.Status = status
	f.payments[id] = p
	return nil
}

func (f fakePayments) ListReleasedBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ReleasedEarning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var earnings []models.ReleasedEarning
	for _, m := range f.milestones {
		if m.Status != valueobject.MilestoneStatusReleased {
			continue
		}
		order, ok := f.orders[f.payments[m.PaymentID].OrderID]
		if !ok || order.SellerID != sellerID {
			continue
		}
		earnings = append(earnings, models.ReleasedEarning{MilestoneID: m.ID, Amount: m.Amount, ReleasedAt: *m.ReleasedAt})
	}
	return earnings, nil
}

// --- withdrawals ---

type fakeWithdrawals struct{ *memStore }

func (f fakeWithdrawals) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdrawals[w.ID] = *w
	return nil
}

func (f fakeWithdrawals) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.withdrawals[id]
	if !ok {
		return nil, apperror.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (f fakeWithdrawals) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.WithdrawalRequest
	for _, w := range f.withdrawals {
		if w.SellerID == sellerID {
			list = append(list, w)
		}
	}
	return list, nil
}

func (f fakeWithdrawals) SumBySellerAndStatus(ctx context.Context, sellerID uuid.UUID, status valueobject.WithdrawalStatus) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, w := range f.withdrawals {
		if w.SellerID == sellerID && w.Status == status {
			sum = sum.Add(w.Amount)
		}
	}
	return sum, nil
}

func (f fakeWithdrawals) Decide(ctx context.Context, d repository.WithdrawalDecision) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.withdrawals[d.ID]
	if !ok || w.Status != valueobject.WithdrawalStatusPending {
		return false, nil
	}
	at := d.At
	w.Status = d.To
	w.AdminNote = d.AdminNote
	w.TransferReference = d.TransferReference
	w.ProcessedAt = &at
	f.withdrawals[d.ID] = w
	return true, nil
}

// --- resolutions ---

type fakeResolutions struct{ *memStore }

func (f fakeResolutions) Create(ctx context.Context, res *models.Resolution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res.Type == valueobject.ResolutionTypeReview {
		for _, r := range f.resolutions {
			if r.OrderID == res.OrderID && r.Type == valueobject.ResolutionTypeReview {
				return common.ErrAlreadyExists
			}
		}
	}
	res.CreatedAt = time.Now()
	f.resolutions[res.ID] = *res
	return nil
}

func (f fakeResolutions) GetByID(ctx context.Context, id uuid.UUID) (*models.Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resolutions[id]
	if !ok {
		return nil, apperror.ErrResolutionNotFound
	}
	return &r, nil
}

func (f fakeResolutions) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Resolution
	for _, r := range f.resolutions {
		if r.OrderID == orderID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (f fakeResolutions) SellerRatingStats(ctx context.Context, sellerID uuid.UUID) (models.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats models.RatingStats
	total := 0
	for _, r := range f.resolutions {
		if r.SellerID == sellerID && r.Type == valueobject.ResolutionTypeReview && r.Rating != nil {
			total += *r.Rating
			stats.Count++
		}
	}
	if stats.Count > 0 {
		stats.Average = float64(total) / float64(stats.Count)
	}
	return stats, nil
}

func (f fakeResolutions) TransitionStatus(ctx context.Context, id uuid.UUID, from, to valueobject.ResolutionStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resolutions[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	f.resolutions[id] = r
	return true, nil
}

// --- chat ---

type fakeChat struct{ *memStore }

func (f fakeChat) Append(ctx context.Context, msg *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f fakeChat) ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.ChatMessage
	for _, m := range f.messages {
		if m.OrderID == orderID {
			list = append(list, m)
		}
	}
	return list, nil
}

// --- gateway ---

const testGatewaySecret = "test-gateway-secret"

// fakeGateway ведёт себя как шлюз с идемпотентными переводами и возвратами.
type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	orders    map[string]gateway.Order
	payments  map[string]gateway.Payment
	transfers map[string]gateway.Transfer
	refunds   map[string]gateway.Refund
	failWith  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		orders:    make(map[string]gateway.Order),
		payments:  make(map[string]gateway.Payment),
		transfers: make(map[string]gateway.Transfer),
		refunds:   make(map[string]gateway.Refund),
	}
}

func (g *fakeGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_%d", prefix, g.seq)
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	o := gateway.Order{ID: g.nextID("order"), Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}
	g.orders[o.ID] = o
	return &o, nil
}

// pay имитирует оплату клиентом и возвращает данные для подтверждения.
func (g *fakeGateway) pay(orderID string, amount int64) GatewayVerification {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := gateway.Payment{ID: g.nextID("pay"), OrderID: orderID, Amount: amount, Currency: g.orders[orderID].Currency, Status: "captured"}
	g.payments[p.ID] = p
	return GatewayVerification{
		GatewayOrderID:   orderID,
		GatewayPaymentID: p.ID,
		Signature:        gateway.Sign(testGatewaySecret, orderID, p.ID),
	}
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, &gateway.APIError{StatusCode: 404, Code: "NOT_FOUND", Description: "payment not found"}
	}
	return &p, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(testGatewaySecret, orderID, paymentID, signature)
}

func (g *fakeGateway) Transfer(ctx context.Context, req gateway.TransferRequest) (*gateway.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	if t, ok := g.transfers[req.IdempotencyKey]; ok {
		return &t, nil
	}
	t := gateway.Transfer{ID: g.nextID("trf"), Amount: req.Amount, Status: "processed"}
	g.transfers[req.IdempotencyKey] = t
	return &t, nil
}

func (g *fakeGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	if r, ok := g.refunds[req.IdempotencyKey]; ok {
		return &r, nil
	}
	r := gateway.Refund{ID: g.nextID("rfnd"), Amount: req.Amount, Status: "processed"}
	g.refunds[req.IdempotencyKey] = r
	return &r, nil
}

// --- fixture ---

type fixture struct {
	store       *memStore
	gw          *fakeGateway
	orders      *OrderService
	escrow      *EscrowService
	withdrawals *WithdrawalService
	resolutions *ResolutionService
	chat        *ChatService
	now         time.Time
	seller      models.Seller
	clientID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	gw := newFakeGateway()
	f := &fixture{
		store:    store,
		gw:       gw,
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		clientID: uuid.New(),
	}
	f.seller = models.Seller{
		ID:          uuid.New(),
		DisplayName: "Анна Блогер",
		PayoutDetails: &models.PayoutDestination{
			AccountHolder: "Анна Блогер",
			AccountNumber: "000123456789",
			IFSC:          "HDFC0000001",
		},
		PayoutVerified: true,
	}
	store.sellers[f.seller.ID] = f.seller

	orders := fakeOrders{store}
	sellers := fakeSellers{store}
	payments := fakePayments{store}

	f.orders = NewOrderService(orders, sellers, fakeOrderHistory{store}, nil)
	f.escrow = NewEscrowService(fakeTx{}, orders, f.orders, payments, gw, EscrowPolicy{
		Currency:       "INR",
		FeePercent:     decimal.NewFromInt(10),
		MilestoneCount: 5,
		KeyID:          "key_test",
	}, nil, WithClock(func() time.Time { return f.now }))
	f.withdrawals = NewWithdrawalService(fakeTx{}, fakeWithdrawals{store}, payments, sellers, WithdrawalPolicy{
		Minimum:    decimal.NewFromInt(500),
		LockWindow: 48 * time.Hour,
	}, nil)
	f.resolutions = NewResolutionService(fakeTx{}, fakeResolutions{store}, orders, f.orders, sellers, nil)
	f.chat = NewChatService(fakeChat{store}, orders, nil)
	return f
}

// newOrder сохраняет заказ в нужном статусе напрямую в хранилище.
func (f *fixture) newOrder(status valueobject.OrderStatus, amount string) models.Order {
	order := models.Order{
		ID:          uuid.New(),
		SellerID:    f.seller.ID,
		ClientID:    f.clientID,
		SellerName:  f.seller.DisplayName,
		Platform:    models.PlatformInstagram,
		ServiceType: "Reels",
		Terms:       models.ServiceTerms{Amount: decimal.RequireFromString(amount), TimelineDays: 14},
		TotalAmount: decimal.RequireFromString(amount),
		Status:      status,
	}
	f.store.mu.Lock()
	f.store.orders[order.ID] = order
	f.store.mu.Unlock()
	return order
}

// capturedPayment проводит заказ через оплату и возвращает принятый платёж.
func (f *fixture) capturedPayment(t *testing.T, amount string) (models.Order, *models.Payment) {
	t.Helper()
	order := f.newOrder(valueobject.OrderStatusPaymentPending, amount)
	intent, err := f.escrow.InitiatePayment(context.Background(), order.ID, f.clientID)
	require.NoError(t, err)
	payment, err := f.escrow.CaptureAndOpenEscrow(context.Background(), f.clientID, f.gw.pay(intent.GatewayOrderID, intent.Amount))
	require.NoError(t, err)
	return order, payment
}

func (f *fixture) payment(t *testing.T, id uuid.UUID) *models.Payment {
	t.Helper()
	p, err := fakePayments{f.store}.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) orderStatus(id uuid.UUID) valueobject.OrderStatus {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.orders[id].Status
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

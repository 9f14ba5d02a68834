package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/logger"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/observability"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/repository"
	"github.com/ignatzorin/creator-escrow/internal/validation"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
	SumBySellerAndStatus(ctx context.Context, sellerID uuid.UUID, status valueobject.WithdrawalStatus) (decimal.Decimal, error)
	Decide(ctx context.Context, d repository.WithdrawalDecision) (bool, error)
}

// EarningsRepository - выплаченные исполнителю этапы.
type EarningsRepository interface {
	ListReleasedBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ReleasedEarning, error)
}

// WithdrawalPolicy - минимальная сумма вывода и окно блокировки заработка.
type WithdrawalPolicy struct {
	Minimum    decimal.Decimal
	LockWindow time.Duration
}

type WithdrawalService struct {
	tx          Transactor
	withdrawals WithdrawalRepository
	earnings    EarningsRepository
	sellers     SellerRepository
	policy      WithdrawalPolicy
	notifier    Notifier
	metrics     *observability.EscrowMetrics
}

func NewWithdrawalService(
	tx Transactor,
	withdrawals WithdrawalRepository,
	earnings EarningsRepository,
	sellers SellerRepository,
	policy WithdrawalPolicy,
	notifier Notifier,
) *WithdrawalService {
	return &WithdrawalService{
		tx:          tx,
		withdrawals: withdrawals,
		earnings:    earnings,
		sellers:     sellers,
		policy:      policy,
		notifier:    notifier,
		metrics:     observability.Escrow(),
	}
}

type ledger struct {
	earnings  []models.ReleasedEarning
	withdrawn decimal.Decimal
	pending   decimal.Decimal
}

// ComputeBalance считает баланс исполнителя на момент now. Суммы не хранятся,
// а каждый раз выводятся из выплаченных этапов и истории заявок.
func (s *WithdrawalService) ComputeBalance(ctx context.Context, sellerID uuid.UUID, now time.Time) (*models.Balance, error) {
	l, err := s.readLedger(ctx, sellerID, true)
	if err != nil {
		return nil, failure("compute_balance", "seller_id", sellerID, err)
	}
	b := computeBalance(l.earnings, l.withdrawn, l.pending, now, s.policy.LockWindow)
	return &b, nil
}

// readLedger читает данные для баланса. Внутри транзакции чтения идут по очереди:
// одно соединение нельзя делить между горутинами.
func (s *WithdrawalService) readLedger(ctx context.Context, sellerID uuid.UUID, parallel bool) (ledger, error) {
	var l ledger
	reads := []func(context.Context) error{
		func(ctx context.Context) (err error) {
			l.earnings, err = s.earnings.ListReleasedBySeller(ctx, sellerID)
			return err
		},
		func(ctx context.Context) (err error) {
			l.withdrawn, err = s.withdrawals.SumBySellerAndStatus(ctx, sellerID, valueobject.WithdrawalStatusApproved)
			return err
		},
		func(ctx context.Context) (err error) {
			l.pending, err = s.withdrawals.SumBySellerAndStatus(ctx, sellerID, valueobject.WithdrawalStatusPending)
			return err
		},
	}

	if !parallel {
		for _, read := range reads {
			if err := read(ctx); err != nil {
				return ledger{}, err
			}
		}
		return l, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, read := range reads {
		read := read
		g.Go(func() error { return read(gctx) })
	}
	if err := g.Wait(); err != nil {
		return ledger{}, err
	}
	return l, nil
}

// computeBalance - чистый расчёт баланса. Заработок созревает, когда с выплаты
// прошло больше окна блокировки; доступная сумма не бывает отрицательной.
func computeBalance(earnings []models.ReleasedEarning, withdrawn, pending decimal.Decimal, now time.Time, window time.Duration) models.Balance {
	cutoff := now.Add(-window)
	lifetime, mature, locked := decimal.Zero, decimal.Zero, decimal.Zero
	for _, e := range earnings {
		lifetime = lifetime.Add(e.Amount)
		if e.ReleasedAt.Before(cutoff) {
			mature = mature.Add(e.Amount)
		} else {
			locked = locked.Add(e.Amount)
		}
	}

	available := mature.Sub(withdrawn).Sub(pending)
	if available.IsNegative() {
		available = decimal.Zero
	}
	return models.Balance{
		LifetimeEarnings: lifetime,
		Withdrawn:        withdrawn,
		PendingRequested: pending,
		Locked:           locked,
		Available:        available,
		ComputedAt:       now,
	}
}

// RequestWithdrawal создаёт заявку на вывод. Доступный баланс пересчитывается
// под блокировкой исполнителя, поэтому две заявки не могут потратить одни и те же деньги.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, sellerID uuid.UUID, amount decimal.Decimal) (*models.WithdrawalRequest, error) {
	const op = "request_withdrawal"

	if _, err := valueobject.NewAmount(amount); err != nil {
		return nil, err
	}
	if amount.LessThan(s.policy.Minimum) {
		return nil, apperror.InvalidAmount("минимальная сумма вывода " + s.policy.Minimum.StringFixed(valueobject.MoneyScale))
	}

	var created *models.WithdrawalRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		seller, err := s.sellers.GetByIDForUpdate(ctx, sellerID)
		if err != nil {
			return err
		}
		destination, ok := seller.VerifiedPayout()
		if !ok {
			return apperror.ErrPayoutDetailsMissing
		}

		now := time.Now().UTC()
		l, err := s.readLedger(ctx, sellerID, false)
		if err != nil {
			return err
		}
		balance := computeBalance(l.earnings, l.withdrawn, l.pending, now, s.policy.LockWindow)
		if amount.GreaterThan(balance.Available) {
			return apperror.ErrInsufficientFunds
		}

		created = &models.WithdrawalRequest{
			ID:            uuid.New(),
			SellerID:      sellerID,
			Amount:        amount,
			Status:        valueobject.WithdrawalStatusPending,
			PayoutDetails: destination,
			CreatedAt:     now,
		}
		return s.withdrawals.Create(ctx, created)
	})
	if err != nil {
		if apperror.CodeOf(err) == apperror.ErrCodeInsufficientFunds {
			s.metrics.Withdrawal("insufficient_funds")
		}
		return nil, failure(op, "seller_id", sellerID, err)
	}

	s.metrics.Withdrawal("requested")
	logger.Operation(op, "seller_id", sellerID).
		WithField("withdrawal_id", created.ID).
		WithField("amount", amount.String()).
		Info("создана заявка на вывод")
	return created, nil
}

func (s *WithdrawalService) ListWithdrawals(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	limit, offset = normalizePage(limit, offset)
	list, err := s.withdrawals.ListBySeller(ctx, sellerID, limit, offset)
	if err != nil {
		return nil, failure("list_withdrawals", "seller_id", sellerID, err)
	}
	return list, nil
}

// Approve фиксирует, что администратор перевёл деньги.
func (s *WithdrawalService) Approve(ctx context.Context, id uuid.UUID, transferReference, note string) (*models.WithdrawalRequest, error) {
	transferReference = strings.TrimSpace(transferReference)
	if err := validation.ValidateText("номер перевода", transferReference, validation.MaxTransferRefLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	return s.decide(ctx, id, valueobject.WithdrawalStatusApproved, &transferReference, note)
}

// Reject отклоняет заявку; сумма снова становится доступной.
func (s *WithdrawalService) Reject(ctx context.Context, id uuid.UUID, note string) (*models.WithdrawalRequest, error) {
	return s.decide(ctx, id, valueobject.WithdrawalStatusRejected, nil, note)
}

func (s *WithdrawalService) decide(ctx context.Context, id uuid.UUID, to valueobject.WithdrawalStatus, transferRef *string, note string) (*models.WithdrawalRequest, error) {
	const op = "decide_withdrawal"

	note = strings.TrimSpace(note)
	if err := validation.ValidateLength("комментарий", note, 0, validation.MaxAdminNoteLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	var adminNote *string
	if note != "" {
		adminNote = &note
	}

	ok, err := s.withdrawals.Decide(ctx, repository.WithdrawalDecision{
		ID:                id,
		To:                to,
		AdminNote:         adminNote,
		TransferReference: transferRef,
		At:                time.Now().UTC(),
	})
	if err != nil {
		return nil, failure(op, "withdrawal_id", id, err)
	}

	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, failure(op, "withdrawal_id", id, err)
	}
	if !ok {
		return nil, apperror.InvalidTransition("заявка уже обработана")
	}

	s.metrics.Withdrawal(string(to))
	notify(s.notifier, w.SellerID, EventWithdrawalProcessed, w)
	return w, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
)

// FundsBucket - куда уходят деньги из эскроу.
type FundsBucket string

const (
	BucketReleased FundsBucket = "released"
	BucketRefunded FundsBucket = "refunded"
)

// MilestoneTransition описывает условный переход этапа.
type MilestoneTransition struct {
	MilestoneID uuid.UUID
	From        valueobject.MilestoneStatus
	To          valueobject.MilestoneStatus
	At          time.Time
	ExternalRef *string
	Reason      *string
}

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateIntent сохраняет платёж в статусе created с суммой, выставленной шлюзу.
func (r *PaymentRepository) CreateIntent(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, gateway_order_id, currency, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := common.Conn(ctx, r.db).GetContext(ctx, p, query,
		p.ID, p.OrderID, p.GatewayOrderID, p.Currency, p.TotalAmount, p.Status)
	if common.IsUniqueViolation(err) {
		return common.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("payment repository: create intent: %w", err)
	}
	return nil
}

// GetByID возвращает платёж вместе с этапами.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	p, err := common.GetByID[models.Payment](ctx, common.Conn(ctx, r.db), "payments", id, apperror.ErrPaymentNotFound)
	if err != nil {
		return nil, err
	}
	return p, r.loadMilestones(ctx, p)
}

// GetByIDForUpdate блокирует строку платежа до конца транзакции: все переходы этапов
// одного платежа выполняются по очереди.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	p, err := common.GetByIDForUpdate[models.Payment](ctx, common.Conn(ctx, r.db), "payments", id, apperror.ErrPaymentNotFound)
	if err != nil {
		return nil, err
	}
	return p, r.loadMilestones(ctx, p)
}

func (r *PaymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	return r.getOneBy(ctx, "gateway_order_id = $1", gatewayOrderID)
}

// GetLiveByOrderID возвращает незавершившийся неудачей платёж заказа.
func (r *PaymentRepository) GetLiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return r.getOneBy(ctx, "order_id = $1 AND status <> 'failed'", orderID)
}

func (r *PaymentRepository) getOneBy(ctx context.Context, where string, arg interface{}) (*models.Payment, error) {
	var p models.Payment
	if err := common.Conn(ctx, r.db).GetContext(ctx, &p, "SELECT * FROM payments WHERE "+where, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by %s: %w", where, err)
	}
	return &p, r.loadMilestones(ctx, &p)
}

func (r *PaymentRepository) loadMilestones(ctx context.Context, p *models.Payment) error {
	p.Milestones = nil
	err := common.Conn(ctx, r.db).SelectContext(ctx, &p.Milestones,
		`SELECT * FROM milestones WHERE payment_id = $1 ORDER BY step`, p.ID)
	if err != nil {
		return fmt.Errorf("payment repository: load milestones: %w", err)
	}
	return nil
}

// MarkCaptured переводит платёж created → captured и открывает эскроу на всю сумму.
func (r *PaymentRepository) MarkCaptured(ctx context.Context, p *models.Payment) (bool, error) {
	res, err := common.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payments SET
			status = $2,
			gateway_payment_id = $3,
			gateway_signature = $4,
			platform_fee = $5,
			seller_amount = $6,
			amount_in_escrow = total_amount,
			captured_at = $7,
			updated_at = NOW()
		WHERE id = $1 AND status = $8
	`, p.ID, valueobject.PaymentStatusCaptured, p.GatewayPaymentID, p.GatewaySignature,
		p.PlatformFee, p.SellerAmount, p.CapturedAt, valueobject.PaymentStatusCreated)
	if err != nil {
		return false, fmt.Errorf("payment repository: mark captured: %w", err)
	}
	return common.Affected(res)
}

// MarkFailed закрывает неудачную попытку оплаты.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := common.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payments SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, id, valueobject.PaymentStatusFailed, reason, valueobject.PaymentStatusCreated)
	if err != nil {
		return fmt.Errorf("payment repository: mark failed: %w", err)
	}
	return nil
}

// InsertMilestones создаёт все этапы платежа одним запросом.
func (r *PaymentRepository) InsertMilestones(ctx context.Context, milestones []models.Milestone) error {
	if len(milestones) == 0 {
		return nil
	}
	_, err := common.Conn(ctx, r.db).NamedExecContext(ctx, `
		INSERT INTO milestones (id, payment_id, step, name, amount, status, requested_at, created_at)
		VALUES (:id, :payment_id, :step, :name, :amount, :status, :requested_at, :created_at)
	`, milestones)
	if err != nil {
		return fmt.Errorf("payment repository: insert milestones: %w", err)
	}
	return nil
}

// TransitionMilestone - условная запись статуса этапа. Время и внешняя ссылка
// пишутся в колонку, соответствующую целевому статусу.
func (r *PaymentRepository) TransitionMilestone(ctx context.Context, t MilestoneTransition) (bool, error) {
	var stamp string
	switch t.To {
	case valueobject.MilestoneStatusPendingApproval:
		stamp = "requested_at"
	case valueobject.MilestoneStatusReleased:
		stamp = "released_at"
	case valueobject.MilestoneStatusRefunded:
		stamp = "refunded_at"
	default:
		return false, fmt.Errorf("payment repository: unsupported milestone target %q", t.To)
	}

	query := fmt.Sprintf(`
		UPDATE milestones SET
			status = $3,
			%s = $4,
			external_ref = COALESCE($5, external_ref),
			refund_reason = COALESCE($6, refund_reason)
		WHERE id = $1 AND status = $2
	`, stamp)
	res, err := common.Conn(ctx, r.db).ExecContext(ctx, query, t.MilestoneID, t.From, t.To, t.At, t.ExternalRef, t.Reason)
	if err != nil {
		return false, fmt.Errorf("payment repository: transition milestone %s->%s: %w", t.From, t.To, err)
	}
	return common.Affected(res)
}

// MoveFunds списывает сумму из эскроу в выплаченное или возвращённое.
// false означает, что в эскроу не хватает денег.
func (r *PaymentRepository) MoveFunds(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, to FundsBucket) (bool, error) {
	var column string
	switch to {
	case BucketReleased:
		column = "amount_released"
	case BucketRefunded:
		column = "amount_refunded"
	default:
		return false, fmt.Errorf("payment repository: unknown funds bucket %q", to)
	}

	query := fmt.Sprintf(`
		UPDATE payments SET
			amount_in_escrow = amount_in_escrow - $2,
			%[1]s = %[1]s + $2,
			updated_at = NOW()
		WHERE id = $1 AND amount_in_escrow >= $2
	`, column)
	res, err := common.Conn(ctx, r.db).ExecContext(ctx, query, paymentID, amount)
	if err != nil {
		return false, fmt.Errorf("payment repository: move funds to %s: %w", to, err)
	}
	return common.Affected(res)
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.PaymentStatus) error {
	_, err := common.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("payment repository: update status: %w", err)
	}
	return nil
}

// ListReleasedBySeller возвращает все выплаченные этапы по заказам исполнителя.
func (r *PaymentRepository) ListReleasedBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ReleasedEarning, error) {
	var earnings []models.ReleasedEarning
	query := `
		SELECT m.id AS milestone_id, m.amount, m.released_at
		FROM milestones m
		JOIN payments p ON p.id = m.payment_id
		JOIN orders o ON o.payment_id = p.id
		WHERE o.seller_id = $1 AND m.status = $2
		ORDER BY m.released_at
	`
	if err := common.Conn(ctx, r.db).SelectContext(ctx, &earnings, query, sellerID, valueobject.MilestoneStatusReleased); err != nil {
		return nil, fmt.Errorf("payment repository: list released by seller: %w", err)
	}
	return earnings, nil
}

package repository

import (
	"context"
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

// WithdrawalDecision - решение администратора по заявке.
type WithdrawalDecision struct {
	ID                uuid.UUID
	To                valueobject.WithdrawalStatus
	AdminNote         *string
	TransferReference *string
	At                time.Time
}

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (id, seller_id, amount, status, payout_details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := common.Conn(ctx, r.db).ExecContext(ctx, query,
		w.ID, w.SellerID, w.Amount, w.Status, w.PayoutDetails, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("withdrawal repository: create: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return common.GetByID[models.WithdrawalRequest](ctx, common.Conn(ctx, r.db), "withdrawal_requests", id, apperror.ErrWithdrawalNotFound)
}

func (r *WithdrawalRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	var list []models.WithdrawalRequest
	query := `
		SELECT * FROM withdrawal_requests
		WHERE seller_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := common.Conn(ctx, r.db).SelectContext(ctx, &list, query, sellerID, limit, offset); err != nil {
		return nil, fmt.Errorf("withdrawal repository: list by seller: %w", err)
	}
	return list, nil
}

// SumBySellerAndStatus суммирует заявки исполнителя в заданном статусе.
func (r *WithdrawalRepository) SumBySellerAndStatus(ctx context.Context, sellerID uuid.UUID, status valueobject.WithdrawalStatus) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE seller_id = $1 AND status = $2`
	if err := common.Conn(ctx, r.db).GetContext(ctx, &sum, query, sellerID, status); err != nil {
		return decimal.Zero, fmt.Errorf("withdrawal repository: sum %s: %w", status, err)
	}
	return sum, nil
}

// Decide переводит заявку из pending в решение администратора условным UPDATE.
func (r *WithdrawalRepository) Decide(ctx context.Context, d WithdrawalDecision) (bool, error) {
	res, err := common.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE withdrawal_requests SET
			status = $2,
			admin_note = $3,
			transfer_reference = $4,
			processed_at = $5
		WHERE id = $1 AND status = $6
	`, d.ID, d.To, d.AdminNote, d.TransferReference, d.At, valueobject.WithdrawalStatusPending)
	if err != nil {
		return false, fmt.Errorf("withdrawal repository: decide: %w", err)
	}
	return common.Affected(res)
}

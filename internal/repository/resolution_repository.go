package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
)

type ResolutionRepository struct {
	db *sqlx.DB
}

func NewResolutionRepository(db *sqlx.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

func (r *ResolutionRepository) Create(ctx context.Context, res *models.Resolution) error {
	query := `
		INSERT INTO resolutions (id, order_id, client_id, seller_id, type, rating, reason_category, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := common.Conn(ctx, r.db).GetContext(ctx, res, query,
		res.ID, res.OrderID, res.ClientID, res.SellerID, res.Type, res.Rating, res.ReasonCategory, res.Description, res.Status)
	if common.IsUniqueViolation(err) {
		return common.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("resolution repository: create: %w", err)
	}
	return nil
}

func (r *ResolutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Resolution, error) {
	return common.GetByID[models.Resolution](ctx, common.Conn(ctx, r.db), "resolutions", id, apperror.ErrResolutionNotFound)
}

func (r *ResolutionRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Resolution, error) {
	var list []models.Resolution
	if err := common.Conn(ctx, r.db).SelectContext(ctx, &list,
		`SELECT * FROM resolutions WHERE order_id = $1 ORDER BY created_at`, orderID); err != nil {
		return nil, fmt.Errorf("resolution repository: list by order: %w", err)
	}
	return list, nil
}

// SellerRatingStats считает среднюю оценку и число отзывов исполнителя.
func (r *ResolutionRepository) SellerRatingStats(ctx context.Context, sellerID uuid.UUID) (models.RatingStats, error) {
	var stats models.RatingStats
	query := `
		SELECT COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count
		FROM resolutions
		WHERE seller_id = $1 AND type = $2
	`
	if err := common.Conn(ctx, r.db).GetContext(ctx, &stats, query, sellerID, valueobject.ResolutionTypeReview); err != nil {
		return models.RatingStats{}, fmt.Errorf("resolution repository: rating stats: %w", err)
	}
	return stats, nil
}

func (r *ResolutionRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to valueobject.ResolutionStatus) (bool, error) {
	res, err := common.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE resolutions SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("resolution repository: transition status: %w", err)
	}
	return common.Affected(res)
}

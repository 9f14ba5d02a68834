package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
)

type SellerRepository struct {
	db *sqlx.DB
}

func NewSellerRepository(db *sqlx.DB) *SellerRepository {
	return &SellerRepository{db: db}
}

func (r *SellerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	return common.GetByID[models.Seller](ctx, common.Conn(ctx, r.db), "sellers", id, apperror.ErrSellerNotFound)
}

// GetByIDForUpdate блокирует строку исполнителя: так сериализуется создание заявок на вывод.
func (r *SellerRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	return common.GetByIDForUpdate[models.Seller](ctx, common.Conn(ctx, r.db), "sellers", id, apperror.ErrSellerNotFound)
}

// UpdateRating сохраняет пересчитанный агрегат отзывов.
func (r *SellerRepository) UpdateRating(ctx context.Context, id uuid.UUID, stats models.RatingStats) error {
	_, err := common.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE sellers SET rating = $2, review_count = $3, updated_at = NOW()
		WHERE id = $1
	`, id, stats.Average, stats.Count)
	if err != nil {
		return fmt.Errorf("seller repository: update rating: %w", err)
	}
	return nil
}

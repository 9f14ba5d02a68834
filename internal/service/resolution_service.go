package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/creator-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/observability"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
	"github.com/ignatzorin/creator-escrow/internal/validation"
)

type ResolutionRepository interface {
	Create(ctx context.Context, res *models.Resolution) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Resolution, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Resolution, error)
	SellerRatingStats(ctx context.Context, sellerID uuid.UUID) (models.RatingStats, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to valueobject.ResolutionStatus) (bool, error)
}

// ResolutionLifecycle - переходы заказа, которые вызывает обращение клиента.
type ResolutionLifecycle interface {
	MarkCompleted(ctx context.Context, orderID uuid.UUID) error
	MarkDisputed(ctx context.Context, orderID uuid.UUID) error
}

// SubmitResolutionInput - отзыв, жалоба или запрос на возврат.
type SubmitResolutionInput struct {
	OrderID        uuid.UUID
	ClientID       uuid.UUID
	SellerID       uuid.UUID
	Type           valueobject.ResolutionType
	Rating         *int
	ReasonCategory *string
	Description    string
}

type ResolutionService struct {
	tx          Transactor
	resolutions ResolutionRepository
	orders      OrderReader
	lifecycle   ResolutionLifecycle
	sellers     SellerRepository
	notifier    Notifier
	metrics     *observability.EscrowMetrics
}

func NewResolutionService(
	tx Transactor,
	resolutions ResolutionRepository,
	orders OrderReader,
	lifecycle ResolutionLifecycle,
	sellers SellerRepository,
	notifier Notifier,
) *ResolutionService {
	return &ResolutionService{
		tx:          tx,
		resolutions: resolutions,
		orders:      orders,
		lifecycle:   lifecycle,
		sellers:     sellers,
		notifier:    notifier,
		metrics:     observability.Escrow(),
	}
}

// Submit сохраняет обращение клиента. Отзыв завершает заказ и пересчитывает рейтинг исполнителя,
// запрос на возврат переводит заказ в спор. Сами деньги здесь не двигаются.
func (s *ResolutionService) Submit(ctx context.Context, in SubmitResolutionInput) (*models.Resolution, error) {
	const op = "submit_resolution"

	if err := validateResolution(&in); err != nil {
		return nil, err
	}

	order, err := loadOrder(ctx, s.orders, op, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != in.SellerID {
		return nil, apperror.Validation("исполнитель не совпадает с заказом")
	}
	if !order.IsClient(in.ClientID) {
		return nil, apperror.ErrNotOrderClient
	}
	if err := ensureResolvable(order.Status, in.Type); err != nil {
		return nil, err
	}

	res := &models.Resolution{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ClientID:       order.ClientID,
		SellerID:       order.SellerID,
		Type:           in.Type,
		Rating:         in.Rating,
		ReasonCategory: in.ReasonCategory,
		Description:    in.Description,
		Status:         valueobject.ResolutionStatusPending,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.resolutions.Create(ctx, res); err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				return apperror.InvalidTransition("отзыв по заказу уже оставлен")
			}
			return err
		}

		switch in.Type {
		case valueobject.ResolutionTypeReview:
			if err := s.lifecycle.MarkCompleted(ctx, order.ID); err != nil {
				return err
			}
			return s.refreshRating(ctx, order.SellerID)
		case valueobject.ResolutionTypeRefundRequest:
			return s.lifecycle.MarkDisputed(ctx, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, failure(op, "order_id", order.ID, err)
	}

	s.metrics.Resolution(string(in.Type))
	notify(s.notifier, order.SellerID, EventResolutionSubmitted, res)
	return res, nil
}

// refreshRating пересчитывает рейтинг как среднее всех отзывов исполнителя.
func (s *ResolutionService) refreshRating(ctx context.Context, sellerID uuid.UUID) error {
	stats, err := s.resolutions.SellerRatingStats(ctx, sellerID)
	if err != nil {
		return err
	}
	stats.Average = math.Round(stats.Average*100) / 100
	return s.sellers.UpdateRating(ctx, sellerID, stats)
}

func validateResolution(in *SubmitResolutionInput) error {
	if !in.Type.IsValid() {
		return apperror.Validation("неизвестный тип обращения")
	}

	in.Description = strings.TrimSpace(in.Description)
	if err := validation.ValidateLength("описание", in.Description, 0, validation.MaxDescriptionLength); err != nil {
		return apperror.Validation(err.Error())
	}

	if in.Type == valueobject.ResolutionTypeReview {
		if in.Rating == nil || *in.Rating < 1 || *in.Rating > 5 {
			return apperror.Validation("рейтинг должен быть от 1 до 5")
		}
		in.ReasonCategory = nil
		return nil
	}

	if in.Rating != nil {
		return apperror.Validation("оценка ставится только в отзыве")
	}
	if in.ReasonCategory == nil {
		return apperror.Validation("укажите причину обращения")
	}
	if _, ok := models.ValidReasonCategories[*in.ReasonCategory]; !ok {
		return apperror.Validation("неизвестная причина обращения")
	}
	if in.Description == "" {
		return apperror.Validation("опишите проблему")
	}
	return nil
}

// ensureResolvable: отзыв и запрос на возврат принимаются только по активному заказу,
// жалоба ещё и по завершённому.
func ensureResolvable(status valueobject.OrderStatus, t valueobject.ResolutionType) error {
	switch {
	case status == valueobject.OrderStatusActive:
		return nil
	case status == valueobject.OrderStatusCompleted && t == valueobject.ResolutionTypeReport:
		return nil
	}
	return apperror.InvalidTransition("обращение недоступно в статусе заказа " + string(status))
}

// UpdateStatus - решение администратора по обращению.
func (s *ResolutionService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Resolution, error) {
	to, err := valueobject.NewResolutionStatus(status)
	if err != nil {
		return nil, err
	}
	if !valueobject.ResolutionStatusPending.CanTransitionTo(to) {
		return nil, apperror.InvalidTransition("обращение можно только закрыть")
	}

	ok, err := s.resolutions.TransitionStatus(ctx, id, valueobject.ResolutionStatusPending, to)
	if err != nil {
		return nil, failure("update_resolution", "resolution_id", id, err)
	}
	res, err := s.resolutions.GetByID(ctx, id)
	if err != nil {
		return nil, failure("update_resolution", "resolution_id", id, err)
	}
	if !ok {
		return nil, apperror.InvalidTransition("обращение уже обработано")
	}
	return res, nil
}

// ListByOrder возвращает обращения участнику заказа.
func (s *ResolutionService) ListByOrder(ctx context.Context, orderID, userID uuid.UUID) ([]models.Resolution, error) {
	order, err := loadOrder(ctx, s.orders, "list_resolutions", orderID)
	if err != nil {
		return nil, err
	}
	if order.RoleOf(userID) == "" {
		return nil, apperror.ErrNotParticipant
	}
	list, err := s.resolutions.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, failure("list_resolutions", "order_id", orderID, err)
	}
	return list, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/auth"
	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/mapper"
	"github.com/viora-as/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TimelineService exposes the append-only event history of an order.
// Comments can be added in any status; lifecycle entries are written by
// the services performing the transitions.
type TimelineService struct {
	orderRepo    *repository.PurchaseOrderRepository
	timelineRepo *repository.TimelineRepository
	logger       *zap.Logger
}

// NewTimelineService creates a new timeline service instance
func NewTimelineService(
	orderRepo *repository.PurchaseOrderRepository,
	timelineRepo *repository.TimelineRepository,
	logger *zap.Logger,
) *TimelineService {
	return &TimelineService{
		orderRepo:    orderRepo,
		timelineRepo: timelineRepo,
		logger:       logger,
	}
}

// List returns an order's timeline in chronological order
func (s *TimelineService) List(ctx context.Context, orderID uuid.UUID) ([]domain.TimelineEntryDTO, error) {
	if err := s.ensureOrderExists(ctx, orderID); err != nil {
		return nil, err
	}

	entries, err := s.timelineRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}

	return mapper.ToTimelineEntryDTOs(entries), nil
}

// AddComment appends a user comment to an order's timeline
func (s *TimelineService) AddComment(ctx context.Context, orderID uuid.UUID, req *domain.AddCommentRequest) (*domain.TimelineEntryDTO, error) {
	if err := s.ensureOrderExists(ctx, orderID); err != nil {
		return nil, err
	}

	userCtx, _ := auth.FromContext(ctx)
	entry := timelineEntry(orderID, domain.TimelineActionComment, userCtx, req.Message)

	if err := s.timelineRepo.Append(ctx, nil, entry); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.logger.Info("comment added",
		zap.String("order_id", orderID.String()),
	)

	dto := mapper.ToTimelineEntryDTO(entry)
	return &dto, nil
}

func (s *TimelineService) ensureOrderExists(ctx context.Context, orderID uuid.UUID) error {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPurchaseOrderNotFound
		}
		return fmt.Errorf("failed to get purchase order: %w", err)
	}
	return nil
}

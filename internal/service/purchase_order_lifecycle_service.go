package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/auth"
	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/mapper"
	"github.com/viora-as/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseOrderLifecycleService drives the order state machine: submit,
// receipt recording, close and cancel. Every transition runs in one
// database transaction together with its timeline entry, guarded by the
// order's version token.
type PurchaseOrderLifecycleService struct {
	db           *gorm.DB
	orderRepo    *repository.PurchaseOrderRepository
	timelineRepo *repository.TimelineRepository
	numberSvc    *NumberSequenceService
	stockEvents  StockEventPublisher
	logger       *zap.Logger
}

// NewPurchaseOrderLifecycleService creates a new lifecycle service instance
func NewPurchaseOrderLifecycleService(
	db *gorm.DB,
	orderRepo *repository.PurchaseOrderRepository,
	timelineRepo *repository.TimelineRepository,
	numberSvc *NumberSequenceService,
	stockEvents StockEventPublisher,
	logger *zap.Logger,
) *PurchaseOrderLifecycleService {
	return &PurchaseOrderLifecycleService{
		db:           db,
		orderRepo:    orderRepo,
		timelineRepo: timelineRepo,
		numberSvc:    numberSvc,
		stockEvents:  stockEvents,
		logger:       logger,
	}
}

// Submit moves a draft order to ordered. The order must have at least
// one line, every line a positive quantity and a non-negative unit
// price. An order number is allocated if none was set on the draft.
func (s *PurchaseOrderLifecycleService) Submit(ctx context.Context, id uuid.UUID, req *domain.SubmitPurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.LifecycleActionSubmit.CanPerform(po.Status) {
		return nil, s.transitionError(po, domain.LifecycleActionSubmit, "")
	}
	if len(po.Lines) == 0 {
		return nil, s.transitionError(po, domain.LifecycleActionSubmit, "order has no lines")
	}
	for i := range po.Lines {
		line := &po.Lines[i]
		if line.Quantity <= 0 {
			return nil, s.transitionError(po, domain.LifecycleActionSubmit,
				fmt.Sprintf("line %s has non-positive quantity", line.ID))
		}
		if line.UnitPrice < 0 {
			return nil, s.transitionError(po, domain.LifecycleActionSubmit,
				fmt.Sprintf("line %s has negative unit price", line.ID))
		}
	}

	// Allocation happens outside the transition transaction; a failed
	// submit leaves a gap in the sequence, never a reused number.
	if po.OrderNumber == "" {
		orderNumber, err := s.numberSvc.GenerateOrderNumber(ctx)
		if err != nil {
			return nil, err
		}
		po.OrderNumber = orderNumber
	}

	now := time.Now().UTC()
	po.Status = domain.PurchaseOrderStatusOrdered
	po.OrderedAt = &now

	userCtx, _ := auth.FromContext(ctx)
	if userCtx != nil {
		po.OrderedByID = userCtx.UserID
		po.OrderedByName = userCtx.DisplayName
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateVersioned(ctx, tx, po, req.Version); err != nil {
			return err
		}
		return s.timelineRepo.Append(ctx, tx, timelineEntry(po.ID, domain.TimelineActionOrdered, userCtx,
			fmt.Sprintf("Order %s placed with supplier", po.OrderNumber)))
	})
	if err != nil {
		return nil, s.translateErr(err)
	}

	s.logger.Info("purchase order submitted",
		zap.String("order_id", po.ID.String()),
		zap.String("order_number", po.OrderNumber),
		zap.Int64("total_amount", po.TotalAmount),
	)

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// RecordReceipt books delivered quantities against an ordered or partial
// order. Quantities are deltas for this delivery. If every line ends up
// fully accounted for the order moves to received, otherwise to partial.
// Any invalid line quantity rejects the whole receipt.
func (s *PurchaseOrderLifecycleService) RecordReceipt(ctx context.Context, id uuid.UUID, req *domain.RecordReceiptRequest) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.LifecycleActionReceive.CanPerform(po.Status) {
		return nil, s.transitionError(po, domain.LifecycleActionReceive, "")
	}

	// Validate every line before touching any of them
	touched := make([]*domain.PurchaseOrderLine, 0, len(req.Lines))
	eventLines := make([]ReceiptEventLine, 0, len(req.Lines))
	anyQuantity := false
	for _, lineReq := range req.Lines {
		line := findLine(po, lineReq.LineID)
		if line == nil {
			return nil, ErrLineNotFound
		}
		if lineReq.Received < 0 || lineReq.Rejected < 0 {
			return nil, &domain.QuantityError{
				LineID:    line.ID.String(),
				Ordered:   line.Quantity,
				Received:  line.ReceivedQuantity,
				Rejected:  line.RejectedQuantity,
				Attempted: fmt.Sprintf("negative delta (+%d received, +%d rejected)", lineReq.Received, lineReq.Rejected),
			}
		}
		newReceived := line.ReceivedQuantity + lineReq.Received
		newRejected := line.RejectedQuantity + lineReq.Rejected
		if newReceived+newRejected > line.Quantity {
			return nil, &domain.QuantityError{
				LineID:    line.ID.String(),
				Ordered:   line.Quantity,
				Received:  line.ReceivedQuantity,
				Rejected:  line.RejectedQuantity,
				Attempted: fmt.Sprintf("+%d received, +%d rejected", lineReq.Received, lineReq.Rejected),
			}
		}
		if lineReq.Received > 0 || lineReq.Rejected > 0 {
			anyQuantity = true
		}

		line.ReceivedQuantity = newReceived
		line.RejectedQuantity = newRejected
		touched = append(touched, line)
		eventLines = append(eventLines, ReceiptEventLine{
			LineID:    line.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Received:  lineReq.Received,
			Rejected:  lineReq.Rejected,
		})
	}
	if !anyQuantity {
		return nil, fmt.Errorf("%w: receipt has no quantities", ErrInvalidInput)
	}

	if po.FullyReconciled() {
		po.Status = domain.PurchaseOrderStatusReceived
	} else {
		po.Status = domain.PurchaseOrderStatusPartial
	}

	userCtx, _ := auth.FromContext(ctx)
	now := time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range touched {
			if err := tx.Save(line).Error; err != nil {
				return fmt.Errorf("failed to update line: %w", err)
			}
		}
		if err := s.orderRepo.UpdateVersioned(ctx, tx, po, req.Version); err != nil {
			return err
		}

		entry := timelineEntry(po.ID, domain.TimelineActionReceived, userCtx, receiptMessage(req, po.Status))
		if metadata, merr := json.Marshal(eventLines); merr == nil {
			entry.Metadata = datatypes.JSON(metadata)
		}
		return s.timelineRepo.Append(ctx, tx, entry)
	})
	if err != nil {
		return nil, s.translateErr(err)
	}

	s.stockEvents.PublishReceipt(ctx, ReceiptEvent{
		OrderID:     po.ID,
		OrderNumber: po.OrderNumber,
		LocationID:  po.LocationID,
		ReceivedAt:  now,
		Lines:       eventLines,
	})

	s.logger.Info("receipt recorded",
		zap.String("order_id", po.ID.String()),
		zap.String("order_number", po.OrderNumber),
		zap.String("status", string(po.Status)),
		zap.Int("line_count", len(eventLines)),
	)

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// Close finishes an order. Closing is always an explicit call, also for
// fully received orders; nothing on the order can change afterwards.
func (s *PurchaseOrderLifecycleService) Close(ctx context.Context, id uuid.UUID, req *domain.ClosePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.LifecycleActionClose.CanPerform(po.Status) {
		return nil, s.transitionError(po, domain.LifecycleActionClose, "")
	}

	now := time.Now().UTC()
	po.Status = domain.PurchaseOrderStatusClosed
	po.ClosedAt = &now

	userCtx, _ := auth.FromContext(ctx)
	if userCtx != nil {
		po.ClosedByID = userCtx.UserID
		po.ClosedByName = userCtx.DisplayName
	}

	message := "Order closed"
	if req.Note != "" {
		message = fmt.Sprintf("Order closed: %s", req.Note)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateVersioned(ctx, tx, po, req.Version); err != nil {
			return err
		}
		return s.timelineRepo.Append(ctx, tx, timelineEntry(po.ID, domain.TimelineActionClosed, userCtx, message))
	})
	if err != nil {
		return nil, s.translateErr(err)
	}

	s.logger.Info("purchase order closed",
		zap.String("order_id", po.ID.String()),
		zap.String("order_number", po.OrderNumber),
	)

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// Cancel aborts an order. Draft and ordered orders can be cancelled as
// long as nothing has been received; a partial order additionally
// requires the force flag, acknowledging that received goods must be
// handled outside the order.
func (s *PurchaseOrderLifecycleService) Cancel(ctx context.Context, id uuid.UUID, req *domain.CancelPurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.LifecycleActionCancel.CanPerform(po.Status) {
		return nil, s.transitionError(po, domain.LifecycleActionCancel, "")
	}

	if po.Status == domain.PurchaseOrderStatusPartial {
		if !req.Force {
			return nil, s.transitionError(po, domain.LifecycleActionCancel,
				"order has received quantities, cancelling requires force")
		}
	} else if po.HasReceipts() {
		return nil, s.transitionError(po, domain.LifecycleActionCancel, "order has received quantities")
	}

	po.Status = domain.PurchaseOrderStatusCancelled

	userCtx, _ := auth.FromContext(ctx)

	message := "Order cancelled"
	if req.Reason != "" {
		message = fmt.Sprintf("Order cancelled: %s", req.Reason)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateVersioned(ctx, tx, po, req.Version); err != nil {
			return err
		}
		return s.timelineRepo.Append(ctx, tx, timelineEntry(po.ID, domain.TimelineActionCancelled, userCtx, message))
	})
	if err != nil {
		return nil, s.translateErr(err)
	}

	s.logger.Info("purchase order cancelled",
		zap.String("order_id", po.ID.String()),
		zap.String("order_number", po.OrderNumber),
		zap.Bool("forced", req.Force),
	)

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// FlagOverdueOrders flags ordered and partial orders whose expected
// arrival date has passed. Each order is flagged at most once; the flag
// shows up as a system entry on the order's timeline.
func (s *PurchaseOrderLifecycleService) FlagOverdueOrders(ctx context.Context, asOf time.Time) (int, error) {
	orders, err := s.orderRepo.ListOverdue(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue orders: %w", err)
	}

	flagged := 0
	for i := range orders {
		po := &orders[i]
		if err := s.orderRepo.MarkOverdueFlagged(ctx, po.ID, asOf); err != nil {
			s.logger.Error("failed to flag overdue order",
				zap.String("order_id", po.ID.String()),
				zap.Error(err),
			)
			continue
		}

		entry := timelineEntry(po.ID, domain.TimelineActionComment, nil,
			fmt.Sprintf("Order is overdue, expected arrival was %s", po.ExpectedArrivalDate.Format("2006-01-02")))
		if err := s.timelineRepo.Append(ctx, nil, entry); err != nil {
			s.logger.Warn("failed to append overdue timeline entry",
				zap.String("order_id", po.ID.String()),
				zap.Error(err),
			)
		}

		s.logger.Warn("purchase order overdue",
			zap.String("order_id", po.ID.String()),
			zap.String("order_number", po.OrderNumber),
			zap.String("supplier_id", po.SupplierID.String()),
		)
		flagged++
	}

	return flagged, nil
}

func (s *PurchaseOrderLifecycleService) getOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	po, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseOrderNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	return po, nil
}

func (s *PurchaseOrderLifecycleService) transitionError(po *domain.PurchaseOrder, action domain.LifecycleAction, reason string) error {
	return &domain.InvalidTransitionError{
		OrderID:       po.ID.String(),
		Action:        string(action),
		CurrentStatus: po.Status,
		Reason:        reason,
	}
}

func (s *PurchaseOrderLifecycleService) translateErr(err error) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return ErrVersionConflict
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrOrderNumberTaken
	}
	return err
}

func receiptMessage(req *domain.RecordReceiptRequest, status domain.PurchaseOrderStatus) string {
	var received, rejected int
	for _, l := range req.Lines {
		received += l.Received
		rejected += l.Rejected
	}

	message := fmt.Sprintf("Receipt recorded: %d received, %d rejected", received, rejected)
	if status == domain.PurchaseOrderStatusReceived {
		message += ", order fully received"
	}
	if req.Note != "" {
		message += fmt.Sprintf(" (%s)", req.Note)
	}
	return message
}

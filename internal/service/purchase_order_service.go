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

// ErrPurchaseOrderNotFound is returned when a purchase order is not found
var ErrPurchaseOrderNotFound = errors.New("purchase order not found")

// ErrLineNotFound is returned when an order line is not found
var ErrLineNotFound = errors.New("purchase order line not found")

// ErrOrderNotEditable is returned when trying to edit an order that has
// left the draft status
var ErrOrderNotEditable = errors.New("only draft orders can be edited")

// ErrOrderNumberTaken is returned when a manually chosen order number is
// already in use
var ErrOrderNumberTaken = errors.New("order number is already in use")

// PurchaseOrderService handles draft creation and editing of purchase
// orders. Lifecycle transitions live in PurchaseOrderLifecycleService.
type PurchaseOrderService struct {
	db           *gorm.DB
	orderRepo    *repository.PurchaseOrderRepository
	supplierRepo *repository.SupplierRepository
	timelineRepo *repository.TimelineRepository
	logger       *zap.Logger
}

// NewPurchaseOrderService creates a new purchase order service instance
func NewPurchaseOrderService(
	db *gorm.DB,
	orderRepo *repository.PurchaseOrderRepository,
	supplierRepo *repository.SupplierRepository,
	timelineRepo *repository.TimelineRepository,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		db:           db,
		orderRepo:    orderRepo,
		supplierRepo: supplierRepo,
		timelineRepo: timelineRepo,
		logger:       logger,
	}
}

// Create creates a new draft purchase order, optionally with initial lines
func (s *PurchaseOrderService) Create(ctx context.Context, req *domain.CreatePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, req.SupplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	if !supplier.IsActive {
		return nil, ErrSupplierInactive
	}

	if req.OrderNumber != "" {
		existing, err := s.orderRepo.GetByOrderNumber(ctx, req.OrderNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to check order number: %w", err)
		}
		if existing != nil {
			return nil, ErrOrderNumberTaken
		}
	}

	paymentTerms := req.PaymentTerms
	if paymentTerms == "" {
		paymentTerms = domain.PaymentTermsNone
	}
	if !paymentTerms.IsValid() {
		return nil, fmt.Errorf("%w: invalid payment terms %q", ErrInvalidInput, paymentTerms)
	}

	currency := req.SupplierCurrency
	if currency == "" {
		currency = "NOK"
	}

	po := &domain.PurchaseOrder{
		OrderNumber:         req.OrderNumber,
		SupplierID:          req.SupplierID,
		LocationID:          req.LocationID,
		Status:              domain.PurchaseOrderStatusDraft,
		PaymentTerms:        paymentTerms,
		SupplierCurrency:    currency,
		ExpectedArrivalDate: req.ExpectedArrivalDate,
		ShippingCompany:     req.ShippingCompany,
		TrackingNumber:      req.TrackingNumber,
		ReferenceNumber:     req.ReferenceNumber,
		NotesToSupplier:     req.NotesToSupplier,
		Tags:                req.Tags,
		ShippingTotal:       req.ShippingTotal,
		Version:             1,
	}

	for _, lineReq := range req.Lines {
		line := domain.PurchaseOrderLine{
			ProductID:   lineReq.ProductID,
			VariantID:   lineReq.VariantID,
			SupplierSKU: lineReq.SupplierSKU,
			Quantity:    lineReq.Quantity,
			UnitPrice:   lineReq.UnitPrice,
			TaxRate:     lineReq.TaxRate,
		}
		line.RecalculateLineTotal()
		po.Lines = append(po.Lines, line)
	}
	po.RecalculateTotals()

	userCtx, _ := auth.FromContext(ctx)
	if userCtx != nil {
		po.CreatedByID = userCtx.UserID
		po.CreatedByName = userCtx.DisplayName
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(po).Error; err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		return s.timelineRepo.Append(ctx, tx, timelineEntry(po.ID, domain.TimelineActionCreated, userCtx, "Purchase order created"))
	})
	if err != nil {
		// The pre-insert lookup races with concurrent writers; the
		// partial unique index is the authority.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrOrderNumberTaken
		}
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("order_id", po.ID.String()),
		zap.String("supplier_id", po.SupplierID.String()),
		zap.Int("line_count", len(po.Lines)),
	)

	po.Supplier = supplier
	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// GetByID retrieves a purchase order with its lines
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// List returns a paginated list of purchase orders
func (s *PurchaseOrderService) List(ctx context.Context, page, pageSize int, filters *domain.PurchaseOrderFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	orders, total, err := s.orderRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	dtos := make([]domain.PurchaseOrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, mapper.ToPurchaseOrderDTO(&orders[i]))
	}

	return paginatedResponse(dtos, total, page, pageSize), nil
}

// Update edits the header fields of a draft order. The request carries
// the version the caller last read; a stale version fails with
// ErrVersionConflict and no changes are applied.
func (s *PurchaseOrderService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.PurchaseOrderStatusDraft {
		return nil, ErrOrderNotEditable
	}

	if req.SupplierID != nil && *req.SupplierID != po.SupplierID {
		supplier, err := s.supplierRepo.GetByID(ctx, *req.SupplierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSupplierNotFound
			}
			return nil, fmt.Errorf("failed to get supplier: %w", err)
		}
		if !supplier.IsActive {
			return nil, ErrSupplierInactive
		}
		po.SupplierID = supplier.ID
		po.Supplier = supplier
	}

	if req.OrderNumber != nil && *req.OrderNumber != po.OrderNumber {
		if *req.OrderNumber != "" {
			existing, err := s.orderRepo.GetByOrderNumber(ctx, *req.OrderNumber)
			if err != nil {
				return nil, fmt.Errorf("failed to check order number: %w", err)
			}
			if existing != nil && existing.ID != po.ID {
				return nil, ErrOrderNumberTaken
			}
		}
		po.OrderNumber = *req.OrderNumber
	}

	if req.LocationID != "" {
		po.LocationID = req.LocationID
	}
	if req.PaymentTerms != "" {
		if !req.PaymentTerms.IsValid() {
			return nil, fmt.Errorf("%w: invalid payment terms %q", ErrInvalidInput, req.PaymentTerms)
		}
		po.PaymentTerms = req.PaymentTerms
	}
	if req.SupplierCurrency != "" {
		po.SupplierCurrency = req.SupplierCurrency
	}
	if req.ExpectedArrivalDate != nil {
		po.ExpectedArrivalDate = req.ExpectedArrivalDate
	}
	if req.ShippingCompany != nil {
		po.ShippingCompany = *req.ShippingCompany
	}
	if req.TrackingNumber != nil {
		po.TrackingNumber = *req.TrackingNumber
	}
	if req.ReferenceNumber != nil {
		po.ReferenceNumber = *req.ReferenceNumber
	}
	if req.NotesToSupplier != nil {
		po.NotesToSupplier = *req.NotesToSupplier
	}
	if req.Tags != nil {
		po.Tags = req.Tags
	}
	if req.ShippingTotal != nil {
		po.ShippingTotal = *req.ShippingTotal
	}
	po.RecalculateTotals()

	userCtx, _ := auth.FromContext(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateVersioned(ctx, tx, po, req.Version); err != nil {
			return err
		}
		return s.timelineRepo.Append(ctx, tx, timelineEntry(po.ID, domain.TimelineActionEdited, userCtx, "Order details updated"))
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrVersionConflict
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrOrderNumberTaken
		}
		return nil, err
	}

	s.logger.Info("purchase order updated",
		zap.String("order_id", po.ID.String()),
		zap.Int("version", po.Version),
	)

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// AddLine appends a line to a draft order and recalculates the totals
func (s *PurchaseOrderService) AddLine(ctx context.Context, orderID uuid.UUID, req *domain.CreatePurchaseOrderLineRequest) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.PurchaseOrderStatusDraft {
		return nil, ErrOrderNotEditable
	}

	line := domain.PurchaseOrderLine{
		PurchaseOrderID: po.ID,
		ProductID:       req.ProductID,
		VariantID:       req.VariantID,
		SupplierSKU:     req.SupplierSKU,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		TaxRate:         req.TaxRate,
	}
	line.RecalculateLineTotal()

	po.Lines = append(po.Lines, line)
	po.RecalculateTotals()

	userCtx, _ := auth.FromContext(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&po.Lines[len(po.Lines)-1]).Error; err != nil {
			return fmt.Errorf("failed to create line: %w", err)
		}
		if err := s.orderRepo.UpdateVersioned(ctx, tx, po, po.Version); err != nil {
			return err
		}
		return s.timelineRepo.Append(ctx, tx, timelineEntry(po.ID, domain.TimelineActionEdited, userCtx,
			fmt.Sprintf("Line added: %s (%d pcs)", req.ProductID, req.Quantity)))
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// UpdateLine edits a line on a draft order and recalculates the totals
func (s *PurchaseOrderService) UpdateLine(ctx context.Context, orderID, lineID uuid.UUID, req *domain.UpdatePurchaseOrderLineRequest) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.PurchaseOrderStatusDraft {
		return nil, ErrOrderNotEditable
	}

	line := findLine(po, lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	if req.SupplierSKU != nil {
		line.SupplierSKU = *req.SupplierSKU
	}
	if req.Quantity != nil {
		line.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		line.UnitPrice = *req.UnitPrice
	}
	if req.TaxRate != nil {
		line.TaxRate = *req.TaxRate
	}
	line.RecalculateLineTotal()
	po.RecalculateTotals()

	userCtx, _ := auth.FromContext(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(line).Error; err != nil {
			return fmt.Errorf("failed to update line: %w", err)
		}
		if err := s.orderRepo.UpdateVersioned(ctx, tx, po, req.Version); err != nil {
			return err
		}
		return s.timelineRepo.Append(ctx, tx, timelineEntry(po.ID, domain.TimelineActionEdited, userCtx,
			fmt.Sprintf("Line updated: %s", line.ProductID)))
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// DeleteLine removes a line from a draft order and recalculates the totals
func (s *PurchaseOrderService) DeleteLine(ctx context.Context, orderID, lineID uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.PurchaseOrderStatusDraft {
		return nil, ErrOrderNotEditable
	}

	removed := ""
	kept := make([]domain.PurchaseOrderLine, 0, len(po.Lines))
	for i := range po.Lines {
		if po.Lines[i].ID == lineID {
			removed = po.Lines[i].ProductID
			continue
		}
		kept = append(kept, po.Lines[i])
	}
	if removed == "" {
		return nil, ErrLineNotFound
	}
	po.Lines = kept
	po.RecalculateTotals()

	userCtx, _ := auth.FromContext(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.PurchaseOrderLine{}, "id = ?", lineID).Error; err != nil {
			return fmt.Errorf("failed to delete line: %w", err)
		}
		if err := s.orderRepo.UpdateVersioned(ctx, tx, po, po.Version); err != nil {
			return err
		}
		return s.timelineRepo.Append(ctx, tx, timelineEntry(po.ID, domain.TimelineActionEdited, userCtx,
			fmt.Sprintf("Line removed: %s", removed)))
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// CountByStatus returns the number of orders per lifecycle status
func (s *PurchaseOrderService) CountByStatus(ctx context.Context) (map[domain.PurchaseOrderStatus]int64, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	return counts, nil
}

func (s *PurchaseOrderService) getOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	po, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseOrderNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	return po, nil
}

func findLine(po *domain.PurchaseOrder, lineID uuid.UUID) *domain.PurchaseOrderLine {
	for i := range po.Lines {
		if po.Lines[i].ID == lineID {
			return &po.Lines[i]
		}
	}
	return nil
}

// timelineEntry builds a timeline record attributed to the acting user,
// or to the system when there is none.
func timelineEntry(orderID uuid.UUID, action domain.TimelineAction, userCtx *auth.UserContext, message string) *domain.TimelineEntry {
	entry := &domain.TimelineEntry{
		PurchaseOrderID: orderID,
		Action:          action,
		Message:         message,
	}
	if userCtx != nil {
		userID := userCtx.UserID
		entry.UserID = &userID
		entry.UserName = userCtx.DisplayName
	}
	return entry
}

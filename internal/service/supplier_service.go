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

// ErrSupplierNotFound is returned when a supplier is not found
var ErrSupplierNotFound = errors.New("supplier not found")

// ErrSupplierHasOpenOrders is returned when trying to deactivate a supplier
// that is still referenced by open purchase orders
var ErrSupplierHasOpenOrders = errors.New("cannot deactivate supplier with open purchase orders")

// ErrSupplierInactive is returned when an operation requires an active supplier
var ErrSupplierInactive = errors.New("supplier is deactivated")

// SupplierService handles business logic for suppliers
type SupplierService struct {
	supplierRepo *repository.SupplierRepository
	logger       *zap.Logger
}

// NewSupplierService creates a new supplier service instance
func NewSupplierService(supplierRepo *repository.SupplierRepository, logger *zap.Logger) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		logger:       logger,
	}
}

// Create creates a new supplier
func (s *SupplierService) Create(ctx context.Context, req *domain.CreateSupplierRequest) (*domain.SupplierDTO, error) {
	supplier := &domain.Supplier{
		CompanyName:  req.CompanyName,
		ContactName:  req.ContactName,
		Email:        req.Email,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		PostalCode:   req.PostalCode,
		City:         req.City,
		Region:       req.Region,
		CountryCode:  req.CountryCode,
		Notes:        req.Notes,
		IsActive:     true,
	}

	// Set user tracking fields on creation
	if userCtx, ok := auth.FromContext(ctx); ok {
		supplier.CreatedByID = userCtx.UserID
		supplier.CreatedByName = userCtx.DisplayName
		supplier.UpdatedByID = userCtx.UserID
		supplier.UpdatedByName = userCtx.DisplayName
	}

	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	s.logger.Info("supplier created",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("company_name", supplier.CompanyName),
	)

	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierDTO, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// Update updates an existing supplier
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateSupplierRequest) (*domain.SupplierDTO, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	supplier.CompanyName = req.CompanyName
	supplier.ContactName = req.ContactName
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.AddressLine1 = req.AddressLine1
	supplier.AddressLine2 = req.AddressLine2
	supplier.PostalCode = req.PostalCode
	supplier.City = req.City
	supplier.Region = req.Region
	supplier.CountryCode = req.CountryCode
	supplier.Notes = req.Notes

	// Re-activation goes through the same update path; deactivation does
	// not, so the open-order guard in Deactivate cannot be bypassed.
	if req.IsActive != nil && *req.IsActive {
		supplier.IsActive = true
	}

	if userCtx, ok := auth.FromContext(ctx); ok {
		supplier.UpdatedByID = userCtx.UserID
		supplier.UpdatedByName = userCtx.DisplayName
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}

	s.logger.Info("supplier updated",
		zap.String("supplier_id", supplier.ID.String()),
	)

	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// Deactivate soft deletes a supplier. The supplier row is kept so
// historical orders stay intact; deactivation fails while any order in
// draft, ordered or partial status references the supplier.
func (s *SupplierService) Deactivate(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSupplierNotFound
		}
		return fmt.Errorf("failed to get supplier: %w", err)
	}

	hasOpen, err := s.supplierRepo.HasOpenOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check open orders: %w", err)
	}
	if hasOpen {
		return ErrSupplierHasOpenOrders
	}

	if err := s.supplierRepo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate supplier: %w", err)
	}

	s.logger.Info("supplier deactivated",
		zap.String("supplier_id", id.String()),
		zap.String("company_name", supplier.CompanyName),
	)

	return nil
}

// List returns a paginated list of suppliers
func (s *SupplierService) List(ctx context.Context, page, pageSize int, filters *domain.SupplierFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	suppliers, total, err := s.supplierRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	dtos := make([]domain.SupplierDTO, 0, len(suppliers))
	for i := range suppliers {
		dtos = append(dtos, mapper.ToSupplierDTO(&suppliers[i]))
	}

	return paginatedResponse(dtos, total, page, pageSize), nil
}

package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// supplierSortableFields maps API field names to database column names for suppliers
// Only fields in this map can be used for sorting (whitelist approach)
var supplierSortableFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"companyName": "company_name",
	"city":        "city",
	"countryCode": "country_code",
}

// SupplierRepository handles supplier data access operations
type SupplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository creates a new supplier repository instance
func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Create creates a new supplier in the database
func (r *SupplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// GetByID retrieves a supplier by its ID
func (r *SupplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// Update updates an existing supplier in the database
func (r *SupplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// Deactivate soft deletes a supplier by clearing its active flag.
// The row stays so historical purchase orders keep a valid reference.
func (r *SupplierRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.Supplier{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// List returns a paginated list of suppliers with filter and sort options
func (r *SupplierRepository) List(ctx context.Context, page, pageSize int, filters *domain.SupplierFilters, sort SortConfig) ([]domain.Supplier, int64, error) {
	var suppliers []domain.Supplier
	var total int64

	page, pageSize = normalizePagination(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.Supplier{})

	if filters != nil {
		if filters.Search != "" {
			searchPattern := "%" + strings.ToLower(filters.Search) + "%"
			query = query.Where("LOWER(company_name) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(email) LIKE ?",
				searchPattern, searchPattern, searchPattern)
		}
		if filters.CountryCode != "" {
			query = query.Where("LOWER(country_code) = LOWER(?)", filters.CountryCode)
		}
		if !filters.IncludeInactive {
			query = query.Where("is_active = ?", true)
		}
	} else {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, supplierSortableFields, "company_name")

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order(orderClause).Find(&suppliers).Error

	return suppliers, total, err
}

// HasOpenOrders reports whether the supplier is referenced by any order
// still in an open status (draft, ordered or partial). Open orders block
// deactivation.
func (r *SupplierRepository) HasOpenOrders(ctx context.Context, supplierID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).
		Where("supplier_id = ?", supplierID).
		Where("status IN ?", []domain.PurchaseOrderStatus{
			domain.PurchaseOrderStatusDraft,
			domain.PurchaseOrderStatusOrdered,
			domain.PurchaseOrderStatusPartial,
		}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the total count of active suppliers
func (r *SupplierRepository) Count(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Supplier{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return int(count), err
}

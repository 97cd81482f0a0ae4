package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when a versioned update matched no row,
// meaning another writer committed in between.
var ErrVersionConflict = errors.New("purchase order was modified concurrently")

// purchaseOrderSortableFields maps API field names to database column names
// Only fields in this map can be used for sorting (whitelist approach)
var purchaseOrderSortableFields = map[string]string{
	"createdAt":           "created_at",
	"updatedAt":           "updated_at",
	"orderNumber":         "order_number",
	"status":              "status",
	"totalAmount":         "total_amount",
	"expectedArrivalDate": "expected_arrival_date",
	"orderedAt":           "ordered_at",
}

// PurchaseOrderRepository handles purchase order data access operations
type PurchaseOrderRepository struct {
	db *gorm.DB
}

// NewPurchaseOrderRepository creates a new purchase order repository instance
func NewPurchaseOrderRepository(db *gorm.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

// Create creates a new purchase order together with its lines
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *domain.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

// GetByID retrieves a purchase order with its lines and supplier preloaded
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// GetByOrderNumber finds a purchase order by its order number.
// Returns nil without error when no order carries the number.
func (r *PurchaseOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &po, nil
}

// List returns a paginated list of purchase orders with filter and sort options
func (r *PurchaseOrderRepository) List(ctx context.Context, page, pageSize int, filters *domain.PurchaseOrderFilters, sort SortConfig) ([]domain.PurchaseOrder, int64, error) {
	var orders []domain.PurchaseOrder
	var total int64

	page, pageSize = normalizePagination(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).Preload("Supplier")

	if filters != nil {
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.SupplierID != nil {
			query = query.Where("supplier_id = ?", *filters.SupplierID)
		}
		if filters.LocationID != "" {
			query = query.Where("location_id = ?", filters.LocationID)
		}
		if filters.Tag != "" {
			// Tags are stored as a JSON array; match the quoted element.
			query = query.Where("tags LIKE ?", "%\""+filters.Tag+"\"%")
		}
		if filters.Search != "" {
			searchPattern := "%" + strings.ToLower(filters.Search) + "%"
			query = query.Where("LOWER(order_number) LIKE ? OR LOWER(reference_number) LIKE ? OR LOWER(tracking_number) LIKE ?",
				searchPattern, searchPattern, searchPattern)
		}
		if filters.Overdue {
			query = query.Where("expected_arrival_date < ?", time.Now()).
				Where("status IN ?", []domain.PurchaseOrderStatus{
					domain.PurchaseOrderStatusOrdered,
					domain.PurchaseOrderStatusPartial,
				})
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, purchaseOrderSortableFields, "updated_at")

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order(orderClause).Find(&orders).Error

	return orders, total, err
}

// ListOverdue returns open orders whose expected arrival date has passed
// and which have not been flagged yet. Used by the overdue check job.
func (r *PurchaseOrderRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.PurchaseOrder, error) {
	var orders []domain.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("expected_arrival_date < ?", asOf).
		Where("status IN ?", []domain.PurchaseOrderStatus{
			domain.PurchaseOrderStatusOrdered,
			domain.PurchaseOrderStatusPartial,
		}).
		Where("overdue_flagged_at IS NULL").
		Order("expected_arrival_date ASC").
		Find(&orders).Error
	return orders, err
}

// MarkOverdueFlagged records that the overdue job has reported an order
func (r *PurchaseOrderRepository) MarkOverdueFlagged(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.PurchaseOrder{}).
		Where("id = ?", id).
		Update("overdue_flagged_at", at).Error
}

// headerUpdateColumns builds the column map for a versioned header update.
// A map keeps zero values (cleared fields) in the UPDATE, which a struct
// based Updates call would silently drop.
func headerUpdateColumns(po *domain.PurchaseOrder, newVersion int) map[string]interface{} {
	return map[string]interface{}{
		"supplier_id":           po.SupplierID,
		"location_id":           po.LocationID,
		"order_number":          po.OrderNumber,
		"status":                po.Status,
		"payment_terms":         po.PaymentTerms,
		"supplier_currency":     po.SupplierCurrency,
		"expected_arrival_date": po.ExpectedArrivalDate,
		"shipping_company":      po.ShippingCompany,
		"tracking_number":       po.TrackingNumber,
		"reference_number":      po.ReferenceNumber,
		"notes_to_supplier":     po.NotesToSupplier,
		"subtotal":              po.Subtotal,
		"tax_total":             po.TaxTotal,
		"shipping_total":        po.ShippingTotal,
		"total_amount":          po.TotalAmount,
		"ordered_by_id":         po.OrderedByID,
		"ordered_by_name":       po.OrderedByName,
		"ordered_at":            po.OrderedAt,
		"closed_by_id":          po.ClosedByID,
		"closed_by_name":        po.ClosedByName,
		"closed_at":             po.ClosedAt,
		"version":               newVersion,
		"updated_at":            time.Now(),
	}
}

// UpdateVersioned writes the order header guarded by the optimistic
// concurrency token. When no row matches id+expectedVersion the order
// was changed by another writer and ErrVersionConflict is returned.
// On success po.Version is advanced to the stored value.
//
// Tags are serialized through a separate Save because the JSON
// serializer does not run for map-based updates.
func (r *PurchaseOrderRepository) UpdateVersioned(ctx context.Context, db *gorm.DB, po *domain.PurchaseOrder, expectedVersion int) error {
	if db == nil {
		db = r.db
	}
	newVersion := expectedVersion + 1

	result := db.WithContext(ctx).
		Model(&domain.PurchaseOrder{}).
		Where("id = ? AND version = ?", po.ID, expectedVersion).
		Updates(headerUpdateColumns(po, newVersion))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	if po.Tags != nil {
		if err := db.WithContext(ctx).
			Model(&domain.PurchaseOrder{BaseModel: domain.BaseModel{ID: po.ID}}).
			Update("tags", po.Tags).Error; err != nil {
			return err
		}
	}

	po.Version = newVersion
	return nil
}

// CreateLine adds a line to an order
func (r *PurchaseOrderRepository) CreateLine(ctx context.Context, line *domain.PurchaseOrderLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// GetLineByID retrieves a single order line
func (r *PurchaseOrderRepository) GetLineByID(ctx context.Context, lineID uuid.UUID) (*domain.PurchaseOrderLine, error) {
	var line domain.PurchaseOrderLine
	err := r.db.WithContext(ctx).Where("id = ?", lineID).First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLine updates an existing order line
func (r *PurchaseOrderRepository) UpdateLine(ctx context.Context, line *domain.PurchaseOrderLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// DeleteLine removes a line from an order. Only valid for draft orders;
// the service enforces that.
func (r *PurchaseOrderRepository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.PurchaseOrderLine{}, "id = ?", lineID).Error
}

// CountByStatus returns order counts grouped by status
func (r *PurchaseOrderRepository) CountByStatus(ctx context.Context) (map[domain.PurchaseOrderStatus]int64, error) {
	type row struct {
		Status domain.PurchaseOrderStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.PurchaseOrderStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

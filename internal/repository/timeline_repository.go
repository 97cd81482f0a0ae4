package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// TimelineRepository handles the append-only purchase order timeline.
// There are deliberately no update or delete methods.
type TimelineRepository struct {
	db *gorm.DB
}

// NewTimelineRepository creates a new timeline repository instance
func NewTimelineRepository(db *gorm.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Append adds an entry to an order's timeline. db may be a transaction
// handle so lifecycle writes and their timeline entries commit together;
// pass nil to use the repository's own connection.
func (r *TimelineRepository) Append(ctx context.Context, db *gorm.DB, entry *domain.TimelineEntry) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(entry).Error
}

// ListByOrder returns all timeline entries for an order in append order
func (r *TimelineRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.TimelineEntry, error) {
	var entries []domain.TimelineEntry
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// CountByOrder returns the number of timeline entries for an order
func (r *TimelineRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.TimelineEntry{}).
		Where("purchase_order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

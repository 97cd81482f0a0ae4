package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// AttachmentRepository handles purchase order attachment metadata
type AttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new attachment repository instance
func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create creates a new attachment record
func (r *AttachmentRepository) Create(ctx context.Context, att *domain.Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

// GetByID retrieves an attachment by its ID
func (r *AttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var att domain.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&att).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// ListByOrder returns all attachments for a purchase order
func (r *AttachmentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

// Delete removes an attachment record
func (r *AttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Attachment{}, "id = ?", id).Error
}

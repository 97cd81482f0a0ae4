package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/auth"
	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/mapper"
	"github.com/viora-as/procurement-api/internal/repository"
	"github.com/viora-as/procurement-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrAttachmentNotFound is returned when an attachment is not found
var ErrAttachmentNotFound = errors.New("attachment not found")

// maxAttachmentSize limits uploads to 25 MB
const maxAttachmentSize = 25 << 20

// AttachmentService handles documents uploaded against purchase orders,
// e.g. supplier confirmations and packing slips. Binaries live in
// storage, metadata in the database.
type AttachmentService struct {
	attachmentRepo *repository.AttachmentRepository
	orderRepo      *repository.PurchaseOrderRepository
	storage        storage.Storage
	logger         *zap.Logger
}

// NewAttachmentService creates a new attachment service instance
func NewAttachmentService(
	attachmentRepo *repository.AttachmentRepository,
	orderRepo *repository.PurchaseOrderRepository,
	store storage.Storage,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		orderRepo:      orderRepo,
		storage:        store,
		logger:         logger,
	}
}

// Upload stores a file and records it against the order
func (s *AttachmentService) Upload(ctx context.Context, orderID uuid.UUID, filename, contentType string, data io.Reader) (*domain.AttachmentDTO, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseOrderNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	storagePath, size, err := s.storage.Upload(ctx, filename, contentType, io.LimitReader(data, maxAttachmentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	attachment := &domain.Attachment{
		PurchaseOrderID: orderID,
		Filename:        filename,
		ContentType:     contentType,
		Size:            size,
		StoragePath:     storagePath,
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		attachment.UploadedByID = userCtx.UserID
		attachment.UploadedByName = userCtx.DisplayName
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		// Best effort cleanup of the orphaned blob
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to clean up orphaned file",
				zap.String("storage_path", storagePath),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	s.logger.Info("attachment uploaded",
		zap.String("order_id", orderID.String()),
		zap.String("attachment_id", attachment.ID.String()),
		zap.String("filename", filename),
		zap.Int64("size", size),
	)

	dto := mapper.ToAttachmentDTO(attachment)
	return &dto, nil
}

// Download returns the attachment metadata and a reader for its content.
// The caller must close the reader.
func (s *AttachmentService) Download(ctx context.Context, orderID, attachmentID uuid.UUID) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := s.getAttachment(ctx, orderID, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.storage.Download(ctx, attachment.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download file: %w", err)
	}

	return attachment, reader, nil
}

// List returns all attachments on an order, oldest first
func (s *AttachmentService) List(ctx context.Context, orderID uuid.UUID) ([]domain.AttachmentDTO, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseOrderNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	attachments, err := s.attachmentRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	dtos := make([]domain.AttachmentDTO, 0, len(attachments))
	for i := range attachments {
		dtos = append(dtos, mapper.ToAttachmentDTO(&attachments[i]))
	}
	return dtos, nil
}

// Delete removes an attachment and its stored file
func (s *AttachmentService) Delete(ctx context.Context, orderID, attachmentID uuid.UUID) error {
	attachment, err := s.getAttachment(ctx, orderID, attachmentID)
	if err != nil {
		return err
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	if err := s.storage.Delete(ctx, attachment.StoragePath); err != nil {
		s.logger.Warn("failed to delete stored file",
			zap.String("storage_path", attachment.StoragePath),
			zap.Error(err),
		)
	}

	s.logger.Info("attachment deleted",
		zap.String("order_id", orderID.String()),
		zap.String("attachment_id", attachmentID.String()),
	)

	return nil
}

func (s *AttachmentService) getAttachment(ctx context.Context, orderID, attachmentID uuid.UUID) (*domain.Attachment, error) {
	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	if attachment.PurchaseOrderID != orderID {
		return nil, ErrAttachmentNotFound
	}
	return attachment, nil
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

// AttachmentHandler handles document uploads against purchase orders
type AttachmentHandler struct {
	attachmentService *service.AttachmentService
	maxUploadMB       int64
	logger            *zap.Logger
}

// NewAttachmentHandler creates a new attachment handler instance
func NewAttachmentHandler(attachmentService *service.AttachmentService, maxUploadMB int64, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		maxUploadMB:       maxUploadMB,
		logger:            logger,
	}
}

// Upload godoc
// @Summary Upload attachment
// @Tags PurchaseOrders
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.AttachmentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID: must be a valid UUID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	attachment, err := h.attachmentService.Upload(r.Context(), orderID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, service.ErrPurchaseOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Purchase order not found")
			return
		}
		h.logger.Error("failed to upload attachment", zap.Error(err), zap.String("order_id", orderID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to upload attachment")
		return
	}

	respondJSON(w, http.StatusCreated, attachment)
}

// List godoc
// @Summary List attachments
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Success 200 {array} domain.AttachmentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/attachments [get]
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID: must be a valid UUID")
		return
	}

	attachments, err := h.attachmentService.List(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrPurchaseOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Purchase order not found")
			return
		}
		h.logger.Error("failed to list attachments", zap.Error(err), zap.String("order_id", orderID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list attachments")
		return
	}

	respondJSON(w, http.StatusOK, attachments)
}

// Download godoc
// @Summary Download attachment
// @Tags PurchaseOrders
// @Produce application/octet-stream
// @Param id path string true "Purchase order ID" format(uuid)
// @Param attachmentId path string true "Attachment ID" format(uuid)
// @Success 200
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/attachments/{attachmentId} [get]
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID: must be a valid UUID")
		return
	}

	attachmentID, err := uuid.Parse(chi.URLParam(r, "attachmentId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID: must be a valid UUID")
		return
	}

	attachment, reader, err := h.attachmentService.Download(r.Context(), orderID, attachmentID)
	if err != nil {
		if errors.Is(err, service.ErrAttachmentNotFound) || errors.Is(err, service.ErrPurchaseOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Attachment not found")
			return
		}
		h.logger.Error("failed to download attachment", zap.Error(err), zap.String("attachment_id", attachmentID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to download attachment")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+attachment.Filename+"\"")
	w.Header().Set("Content-Type", attachment.ContentType)

	_, _ = io.Copy(w, reader)
}

// Delete godoc
// @Summary Delete attachment
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param attachmentId path string true "Attachment ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/attachments/{attachmentId} [delete]
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID: must be a valid UUID")
		return
	}

	attachmentID, err := uuid.Parse(chi.URLParam(r, "attachmentId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID: must be a valid UUID")
		return
	}

	if err := h.attachmentService.Delete(r.Context(), orderID, attachmentID); err != nil {
		if errors.Is(err, service.ErrAttachmentNotFound) || errors.Is(err, service.ErrPurchaseOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Attachment not found")
			return
		}
		h.logger.Error("failed to delete attachment", zap.Error(err), zap.String("attachment_id", attachmentID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete attachment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

// PurchaseOrderLifecycleHandler handles the state-changing endpoints of
// a purchase order: submit, receipts, close and cancel
type PurchaseOrderLifecycleHandler struct {
	lifecycleService *service.PurchaseOrderLifecycleService
	logger           *zap.Logger
}

// NewPurchaseOrderLifecycleHandler creates a new lifecycle handler instance
func NewPurchaseOrderLifecycleHandler(
	lifecycleService *service.PurchaseOrderLifecycleService,
	logger *zap.Logger,
) *PurchaseOrderLifecycleHandler {
	return &PurchaseOrderLifecycleHandler{
		lifecycleService: lifecycleService,
		logger:           logger,
	}
}

// Submit godoc
// @Summary Submit purchase order
// @Description Place a draft order with the supplier. The order must have at least one line; an order number is allocated if none was chosen on the draft.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param request body domain.SubmitPurchaseOrderRequest true "Version token"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Not a draft, empty order or version conflict"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/submit [post]
func (h *PurchaseOrderLifecycleHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	var req domain.SubmitPurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.lifecycleService.Submit(r.Context(), id, &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to submit purchase order", zap.String("order_id", id.String()), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to submit purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// RecordReceipt godoc
// @Summary Record receipt
// @Description Book delivered quantities against an ordered or partial order. Quantities are deltas for this delivery; the order moves to received when every line is fully accounted for, otherwise to partial. Any invalid quantity rejects the whole receipt.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param request body domain.RecordReceiptRequest true "Receipt lines"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Wrong status or version conflict"
// @Failure 422 {object} domain.ErrorResponse "Quantities exceed ordered amount"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/receipts [post]
func (h *PurchaseOrderLifecycleHandler) RecordReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	var req domain.RecordReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.lifecycleService.RecordReceipt(r.Context(), id, &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to record receipt", zap.String("order_id", id.String()), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to record receipt",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Close godoc
// @Summary Close purchase order
// @Description Finish an ordered, partial or received order. Closing is always explicit, also for fully received orders. Nothing on the order can change afterwards.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param request body domain.ClosePurchaseOrderRequest true "Optional note and version token"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Wrong status or version conflict"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/close [post]
func (h *PurchaseOrderLifecycleHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	var req domain.ClosePurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.lifecycleService.Close(r.Context(), id, &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to close purchase order", zap.String("order_id", id.String()), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to close purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Cancel godoc
// @Summary Cancel purchase order
// @Description Abort a draft, ordered or partial order. Draft and ordered orders must have no receipts; cancelling a partial order requires the force flag.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param request body domain.CancelPurchaseOrderRequest true "Reason, force flag and version token"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Wrong status, existing receipts or version conflict"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderLifecycleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	var req domain.CancelPurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.lifecycleService.Cancel(r.Context(), id, &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to cancel purchase order", zap.String("order_id", id.String()), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to cancel purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

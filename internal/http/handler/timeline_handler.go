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

// TimelineHandler handles HTTP requests for the purchase order timeline
type TimelineHandler struct {
	timelineService *service.TimelineService
	logger          *zap.Logger
}

// NewTimelineHandler creates a new timeline handler instance
func NewTimelineHandler(
	timelineService *service.TimelineService,
	logger *zap.Logger,
) *TimelineHandler {
	return &TimelineHandler{
		timelineService: timelineService,
		logger:          logger,
	}
}

// List godoc
// @Summary List timeline entries
// @Description Get the full event history of a purchase order in chronological order
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Success 200 {array} domain.TimelineEntryDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/timeline [get]
func (h *TimelineHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	entries, err := h.timelineService.List(r.Context(), id)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to list timeline", zap.String("order_id", id.String()), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list timeline",
		})
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// AddComment godoc
// @Summary Add comment
// @Description Append a comment to a purchase order's timeline. Comments are allowed in any status and can never be edited or removed.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param request body domain.AddCommentRequest true "Comment"
// @Success 201 {object} domain.TimelineEntryDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/comments [post]
func (h *TimelineHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	var req domain.AddCommentRequest
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

	entry, err := h.timelineService.AddComment(r.Context(), id, &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to add comment", zap.String("order_id", id.String()), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to add comment",
		})
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/repository"
	"github.com/viora-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

// PurchaseOrderHandler handles HTTP requests for purchase order CRUD and
// draft line editing
type PurchaseOrderHandler struct {
	orderService *service.PurchaseOrderService
	logger       *zap.Logger
}

// NewPurchaseOrderHandler creates a new purchase order handler instance
func NewPurchaseOrderHandler(
	orderService *service.PurchaseOrderService,
	logger *zap.Logger,
) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// respondOrderError maps the shared purchase order service errors onto
// HTTP responses. Returns false when the error was not handled.
func respondOrderError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, service.ErrPurchaseOrderNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Purchase order not found",
		})
	case errors.Is(err, service.ErrLineNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Purchase order line not found",
		})
	case errors.Is(err, service.ErrSupplierNotFound):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Supplier not found",
		})
	case errors.Is(err, service.ErrSupplierInactive):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Supplier is deactivated",
		})
	case errors.Is(err, service.ErrOrderNotEditable):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Only draft orders can be edited",
		})
	case errors.Is(err, service.ErrOrderNumberTaken):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Order number is already in use",
		})
	case errors.Is(err, service.ErrVersionConflict):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "The order was modified concurrently, re-read and retry",
		})
	case errors.Is(err, service.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	default:
		var transitionErr *domain.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: transitionErr.Error(),
			})
			return true
		}
		var quantityErr *domain.QuantityError
		if errors.As(err, &quantityErr) {
			respondJSON(w, http.StatusUnprocessableEntity, domain.ErrorResponse{
				Error:   "Unprocessable Entity",
				Message: quantityErr.Error(),
			})
			return true
		}
		return false
	}
	return true
}

// List godoc
// @Summary List purchase orders
// @Description Get paginated list of purchase orders with optional filters
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(draft, ordered, partial, received, closed, cancelled)
// @Param supplierId query string false "Filter by supplier ID" format(uuid)
// @Param locationId query string false "Filter by receiving location"
// @Param tag query string false "Filter by tag"
// @Param search query string false "Search by order number, reference or tracking number"
// @Param overdue query bool false "Only orders past their expected arrival date" default(false)
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, orderNumber, totalAmount, expectedArrivalDate, status)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PurchaseOrderDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders [get]
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}

	filters := &domain.PurchaseOrderFilters{
		LocationID: r.URL.Query().Get("locationId"),
		Tag:        r.URL.Query().Get("tag"),
		Search:     r.URL.Query().Get("search"),
		Overdue:    r.URL.Query().Get("overdue") == "true",
	}

	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.PurchaseOrderStatus(status)
		if !s.IsValid() {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid status filter",
			})
			return
		}
		filters.Status = &s
	}

	if supplierID := r.URL.Query().Get("supplierId"); supplierID != "" {
		id, err := uuid.Parse(supplierID)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid supplier ID format",
			})
			return
		}
		filters.SupplierID = &id
	}

	sort := repository.DefaultSortConfig()
	if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" {
		sort.Field = sortBy
	}
	if sortOrder := r.URL.Query().Get("sortOrder"); sortOrder != "" {
		sort.Order = repository.ParseSortOrder(sortOrder)
	}

	result, err := h.orderService.List(r.Context(), page, pageSize, filters, sort)
	if err != nil {
		h.logger.Error("failed to list purchase orders", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list purchase orders",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get purchase order by ID
// @Description Get a purchase order with its lines
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	order, err := h.orderService.GetByID(r.Context(), id)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to get purchase order", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Create godoc
// @Summary Create purchase order
// @Description Create a new draft purchase order, optionally with initial lines
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param request body domain.CreatePurchaseOrderRequest true "Purchase order data"
// @Success 201 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Inactive supplier or duplicate order number"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePurchaseOrderRequest
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

	order, err := h.orderService.Create(r.Context(), &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to create purchase order", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create purchase order",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/purchase-orders/"+order.ID.String())
	respondJSON(w, http.StatusCreated, order)
}

// Update godoc
// @Summary Update purchase order
// @Description Update header fields of a draft order. The request must carry the version returned by the last read; a stale version fails with 409 and no changes are applied.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param request body domain.UpdatePurchaseOrderRequest true "Purchase order data"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Not a draft, duplicate order number or version conflict"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	var req domain.UpdatePurchaseOrderRequest
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

	order, err := h.orderService.Update(r.Context(), id, &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to update purchase order", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// AddLine godoc
// @Summary Add order line
// @Description Add a line to a draft purchase order. Totals are recalculated.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param request body domain.CreatePurchaseOrderLineRequest true "Line data"
// @Success 201 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Order is not a draft"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/lines [post]
func (h *PurchaseOrderHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	var req domain.CreatePurchaseOrderLineRequest
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

	order, err := h.orderService.AddLine(r.Context(), id, &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to add order line", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to add order line",
		})
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// UpdateLine godoc
// @Summary Update order line
// @Description Update a line on a draft purchase order. Totals are recalculated.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param lineId path string true "Line ID" format(uuid)
// @Param request body domain.UpdatePurchaseOrderLineRequest true "Line data"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Order is not a draft or version conflict"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/lines/{lineId} [put]
func (h *PurchaseOrderHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid line ID format",
		})
		return
	}

	var req domain.UpdatePurchaseOrderLineRequest
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

	order, err := h.orderService.UpdateLine(r.Context(), id, lineID, &req)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to update order line", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update order line",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// DeleteLine godoc
// @Summary Delete order line
// @Description Remove a line from a draft purchase order. Totals are recalculated.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param lineId path string true "Line ID" format(uuid)
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Order is not a draft"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/{id}/lines/{lineId} [delete]
func (h *PurchaseOrderHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid line ID format",
		})
		return
	}

	order, err := h.orderService.DeleteLine(r.Context(), id, lineID)
	if err != nil {
		if respondOrderError(w, err) {
			return
		}
		h.logger.Error("failed to delete order line", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete order line",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Stats godoc
// @Summary Purchase order counts per status
// @Description Get the number of purchase orders in each lifecycle status
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /purchase-orders/stats [get]
func (h *PurchaseOrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.orderService.CountByStatus(r.Context())
	if err != nil {
		h.logger.Error("failed to get order stats", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get order stats",
		})
		return
	}

	respondJSON(w, http.StatusOK, counts)
}

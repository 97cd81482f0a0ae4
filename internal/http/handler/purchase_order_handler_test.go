package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/http/handler"
	"github.com/viora-as/procurement-api/internal/repository"
	"github.com/viora-as/procurement-api/internal/service"
	"github.com/viora-as/procurement-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createOrderHandler(db *gorm.DB) *handler.PurchaseOrderHandler {
	logger := zap.NewNop()
	orderService := service.NewPurchaseOrderService(
		db,
		repository.NewPurchaseOrderRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewTimelineRepository(db),
		logger,
	)
	return handler.NewPurchaseOrderHandler(orderService, logger)
}

func createLifecycleHandler(db *gorm.DB) *handler.PurchaseOrderLifecycleHandler {
	logger := zap.NewNop()
	numberSvc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger)
	lifecycleService := service.NewPurchaseOrderLifecycleService(
		db,
		repository.NewPurchaseOrderRepository(db),
		repository.NewTimelineRepository(db),
		numberSvc,
		service.NewLoggingStockEventPublisher(logger),
		logger,
	)
	return handler.NewPurchaseOrderLifecycleHandler(lifecycleService, logger)
}

// withOrderParams injects the order id (and optionally a line id) as
// chi route parameters.
func withOrderParams(req *http.Request, orderID string, extra ...string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", orderID)
	for i := 0; i+1 < len(extra); i += 2 {
		rctx.URLParams.Add(extra[i], extra[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestPurchaseOrderHandler_Create(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := createOrderHandler(db)
	ctx := createHandlerTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Order Supplier")

	t.Run("create draft with lines", func(t *testing.T) {
		body, _ := json.Marshal(domain.CreatePurchaseOrderRequest{
			SupplierID: supplier.ID,
			LocationID: "loc-main",
			Lines: []domain.CreatePurchaseOrderLineRequest{
				{ProductID: "prod-1", VariantID: "var-1", Quantity: 10, UnitPrice: 1000, TaxRate: 25},
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/purchase-orders", bytes.NewReader(body)).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.Create(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.PurchaseOrderStatusDraft, result.Status)
		assert.Equal(t, int64(12500), result.TotalAmount)
		assert.Equal(t, 1, result.Version)
	})

	t.Run("unknown supplier", func(t *testing.T) {
		body, _ := json.Marshal(domain.CreatePurchaseOrderRequest{
			SupplierID: uuid.New(),
			LocationID: "loc-main",
		})

		req := httptest.NewRequest(http.MethodPost, "/purchase-orders", bytes.NewReader(body)).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("line with zero quantity fails validation", func(t *testing.T) {
		body, _ := json.Marshal(domain.CreatePurchaseOrderRequest{
			SupplierID: supplier.ID,
			LocationID: "loc-main",
			Lines: []domain.CreatePurchaseOrderLineRequest{
				{ProductID: "prod-1", VariantID: "var-1", Quantity: 0, UnitPrice: 100},
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/purchase-orders", bytes.NewReader(body)).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPurchaseOrderHandler_GetByID(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := createOrderHandler(db)
	ctx := createHandlerTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Get Supplier")
	po := testutil.CreateTestOrder(t, db, supplier.ID)

	t.Run("get existing order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/purchase-orders/"+po.ID.String(), nil).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.GetByID(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, po.ID, result.ID)
		assert.Len(t, result.Lines, 1)
	})

	t.Run("get non-existent order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/purchase-orders/"+uuid.New().String(), nil).WithContext(ctx)
		req = withOrderParams(req, uuid.New().String())

		rr := httptest.NewRecorder()
		h.GetByID(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPurchaseOrderHandler_Update(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := createOrderHandler(db)
	ctx := createHandlerTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Update Supplier")

	t.Run("version conflict returns 409", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		stale := po.Version + 5
		note := "late edit"
		body, _ := json.Marshal(domain.UpdatePurchaseOrderRequest{
			NotesToSupplier: &note,
			Version:         stale,
		})

		req := httptest.NewRequest(http.MethodPut, "/purchase-orders/"+po.ID.String(), bytes.NewReader(body)).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.Update(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("missing version fails validation", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		req := httptest.NewRequest(http.MethodPut, "/purchase-orders/"+po.ID.String(), bytes.NewReader([]byte("{}"))).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.Update(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPurchaseOrderHandler_Lines(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := createOrderHandler(db)
	ctx := createHandlerTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Line Supplier")

	t.Run("add line", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		body, _ := json.Marshal(domain.CreatePurchaseOrderLineRequest{
			ProductID: "prod-2",
			VariantID: "var-2",
			Quantity:  3,
			UnitPrice: 750,
		})

		req := httptest.NewRequest(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/lines", bytes.NewReader(body)).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.AddLine(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Len(t, result.Lines, 2)
	})

	t.Run("delete line", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		lineID := po.Lines[0].ID

		req := httptest.NewRequest(http.MethodDelete, "/purchase-orders/"+po.ID.String()+"/lines/"+lineID.String(), nil).WithContext(ctx)
		req = withOrderParams(req, po.ID.String(), "lineId", lineID.String())

		rr := httptest.NewRecorder()
		h.DeleteLine(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Empty(t, result.Lines)
	})
}

func TestPurchaseOrderLifecycleHandler_Submit(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := createLifecycleHandler(db)
	ctx := createHandlerTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Submit Supplier")

	t.Run("submit draft", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		body, _ := json.Marshal(domain.SubmitPurchaseOrderRequest{Version: po.Version})
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/submit", bytes.NewReader(body)).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.Submit(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.PurchaseOrderStatusOrdered, result.Status)
		assert.NotEmpty(t, result.OrderNumber)
	})

	t.Run("submit empty draft returns 409", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		require.NoError(t, db.Where("purchase_order_id = ?", po.ID).Delete(&domain.PurchaseOrderLine{}).Error)

		body, _ := json.Marshal(domain.SubmitPurchaseOrderRequest{Version: po.Version})
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/submit", bytes.NewReader(body)).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.Submit(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestPurchaseOrderLifecycleHandler_RecordReceipt(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := createLifecycleHandler(db)
	ctx := createHandlerTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Receipt Supplier")

	submitOrder := func(t *testing.T, po *domain.PurchaseOrder) domain.PurchaseOrderDTO {
		t.Helper()
		body, _ := json.Marshal(domain.SubmitPurchaseOrderRequest{Version: po.Version})
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/submit", bytes.NewReader(body)).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())
		rr := httptest.NewRecorder()
		h.Submit(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		return result
	}

	t.Run("partial receipt", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitOrder(t, po)

		body, _ := json.Marshal(domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: po.Lines[0].ID, Received: 4}},
			Version: submitted.Version,
		})
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/receipts", bytes.NewReader(body)).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.RecordReceipt(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result domain.PurchaseOrderDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.PurchaseOrderStatusPartial, result.Status)
	})

	t.Run("over-receipt returns 422", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitOrder(t, po)

		body, _ := json.Marshal(domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: po.Lines[0].ID, Received: 99}},
			Version: submitted.Version,
		})
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/receipts", bytes.NewReader(body)).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.RecordReceipt(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("receipt against draft returns 409", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		body, _ := json.Marshal(domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: po.Lines[0].ID, Received: 1}},
			Version: po.Version,
		})
		req := httptest.NewRequest(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/receipts", bytes.NewReader(body)).WithContext(ctx)
		req = withOrderParams(req, po.ID.String())

		rr := httptest.NewRecorder()
		h.RecordReceipt(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestPurchaseOrderHandler_Stats(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := createOrderHandler(db)
	ctx := createHandlerTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Stats Supplier")

	testutil.CreateTestOrder(t, db, supplier.ID)
	testutil.CreateTestOrder(t, db, supplier.ID)

	req := httptest.NewRequest(http.MethodGet, "/purchase-orders/stats", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	h.Stats(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var result map[string]int64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, int64(2), result["draft"])
}

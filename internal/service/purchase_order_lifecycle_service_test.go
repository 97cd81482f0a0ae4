package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/service"
	"github.com/viora-as/procurement-api/internal/testutil"
	"gorm.io/gorm"
)

func TestPurchaseOrderLifecycleService_Submit(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createLifecycleService(db)
	ctx := createTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Submit Supplier")

	t.Run("submit allocates an order number", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		submitted, err := svc.Submit(ctx, po.ID, &domain.SubmitPurchaseOrderRequest{Version: po.Version})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseOrderStatusOrdered, submitted.Status)
		assert.Equal(t, fmt.Sprintf("PO-%d-001", time.Now().UTC().Year()), submitted.OrderNumber)
		assert.NotEmpty(t, submitted.OrderedAt)
		assert.Equal(t, "Test User", submitted.OrderedByName)
		assert.Equal(t, po.Version+1, submitted.Version)
	})

	t.Run("sequence increments per submit", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		submitted, err := svc.Submit(ctx, po.ID, &domain.SubmitPurchaseOrderRequest{Version: po.Version})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("PO-%d-002", time.Now().UTC().Year()), submitted.OrderNumber)
	})

	t.Run("caller supplied number is kept", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		require.NoError(t, db.Model(po).Update("order_number", "EXT-42").Error)

		submitted, err := svc.Submit(ctx, po.ID, &domain.SubmitPurchaseOrderRequest{Version: po.Version})
		require.NoError(t, err)
		assert.Equal(t, "EXT-42", submitted.OrderNumber)
	})

	t.Run("empty draft cannot be submitted", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		require.NoError(t, db.Where("purchase_order_id = ?", po.ID).Delete(&domain.PurchaseOrderLine{}).Error)

		_, err := svc.Submit(ctx, po.ID, &domain.SubmitPurchaseOrderRequest{Version: po.Version})
		var transitionErr *domain.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Contains(t, transitionErr.Reason, "no lines")
	})

	t.Run("already submitted order is rejected", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		_, err := svc.Submit(ctx, po.ID, &domain.SubmitPurchaseOrderRequest{Version: po.Version})
		require.NoError(t, err)

		_, err = svc.Submit(ctx, po.ID, &domain.SubmitPurchaseOrderRequest{Version: po.Version + 1})
		var transitionErr *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		_, err := svc.Submit(ctx, po.ID, &domain.SubmitPurchaseOrderRequest{Version: po.Version + 5})
		assert.ErrorIs(t, err, service.ErrVersionConflict)
	})
}

func submitTestOrder(t *testing.T, db *gorm.DB, svc *service.PurchaseOrderLifecycleService, po *domain.PurchaseOrder) *domain.PurchaseOrderDTO {
	t.Helper()
	submitted, err := svc.Submit(createTestContext(), po.ID, &domain.SubmitPurchaseOrderRequest{Version: po.Version})
	require.NoError(t, err)
	return submitted
}

func TestPurchaseOrderLifecycleService_RecordReceipt(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createLifecycleService(db)
	ctx := createTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Receipt Supplier")

	t.Run("partial then full receipt", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID) // one line, quantity 10
		submitted := submitTestOrder(t, db, svc, po)
		lineID := po.Lines[0].ID

		partial, err := svc.RecordReceipt(ctx, po.ID, &domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: lineID, Received: 6}},
			Version: submitted.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseOrderStatusPartial, partial.Status)
		assert.Equal(t, 6, partial.Lines[0].ReceivedQuantity)

		full, err := svc.RecordReceipt(ctx, po.ID, &domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: lineID, Received: 4}},
			Version: partial.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseOrderStatusReceived, full.Status)
		assert.Equal(t, 10, full.Lines[0].ReceivedQuantity)
	})

	t.Run("rejected quantities count towards reconciliation", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitTestOrder(t, db, svc, po)
		lineID := po.Lines[0].ID

		full, err := svc.RecordReceipt(ctx, po.ID, &domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: lineID, Received: 7, Rejected: 3}},
			Version: submitted.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseOrderStatusReceived, full.Status)
		assert.Equal(t, 7, full.Lines[0].ReceivedQuantity)
		assert.Equal(t, 3, full.Lines[0].RejectedQuantity)
	})

	t.Run("over-receipt rejects the whole receipt", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitTestOrder(t, db, svc, po)
		lineID := po.Lines[0].ID

		_, err := svc.RecordReceipt(ctx, po.ID, &domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: lineID, Received: 11}},
			Version: submitted.Version,
		})
		var qtyErr *domain.QuantityError
		require.ErrorAs(t, err, &qtyErr)
		assert.Equal(t, 10, qtyErr.Ordered)

		// Nothing was booked
		var line domain.PurchaseOrderLine
		require.NoError(t, db.First(&line, "id = ?", lineID).Error)
		assert.Equal(t, 0, line.ReceivedQuantity)
	})

	t.Run("receipt with no quantities is invalid", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitTestOrder(t, db, svc, po)
		lineID := po.Lines[0].ID

		_, err := svc.RecordReceipt(ctx, po.ID, &domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: lineID}},
			Version: submitted.Version,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("receipt against a draft is rejected", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		_, err := svc.RecordReceipt(ctx, po.ID, &domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: po.Lines[0].ID, Received: 1}},
			Version: po.Version,
		})
		var transitionErr *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr)
	})
}

func TestPurchaseOrderLifecycleService_Close(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createLifecycleService(db)
	ctx := createTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Close Supplier")

	t.Run("close ordered order", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitTestOrder(t, db, svc, po)

		closed, err := svc.Close(ctx, po.ID, &domain.ClosePurchaseOrderRequest{
			Note:    "remainder will not arrive",
			Version: submitted.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseOrderStatusClosed, closed.Status)
		assert.NotEmpty(t, closed.ClosedAt)
		assert.Equal(t, "Test User", closed.ClosedByName)
	})

	t.Run("closed order is final", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitTestOrder(t, db, svc, po)
		closed, err := svc.Close(ctx, po.ID, &domain.ClosePurchaseOrderRequest{Version: submitted.Version})
		require.NoError(t, err)

		_, err = svc.Close(ctx, po.ID, &domain.ClosePurchaseOrderRequest{Version: closed.Version})
		var transitionErr *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr)
	})

	t.Run("draft cannot be closed", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		_, err := svc.Close(ctx, po.ID, &domain.ClosePurchaseOrderRequest{Version: po.Version})
		var transitionErr *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr)
	})
}

func TestPurchaseOrderLifecycleService_Cancel(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createLifecycleService(db)
	ctx := createTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Cancel Supplier")

	t.Run("cancel draft", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)

		cancelled, err := svc.Cancel(ctx, po.ID, &domain.CancelPurchaseOrderRequest{
			Reason:  "duplicate order",
			Version: po.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseOrderStatusCancelled, cancelled.Status)
	})

	t.Run("cancel ordered", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitTestOrder(t, db, svc, po)

		cancelled, err := svc.Cancel(ctx, po.ID, &domain.CancelPurchaseOrderRequest{Version: submitted.Version})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseOrderStatusCancelled, cancelled.Status)
	})

	t.Run("partial order requires force", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitTestOrder(t, db, svc, po)

		partial, err := svc.RecordReceipt(ctx, po.ID, &domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: po.Lines[0].ID, Received: 3}},
			Version: submitted.Version,
		})
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, po.ID, &domain.CancelPurchaseOrderRequest{Version: partial.Version})
		var transitionErr *domain.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Contains(t, transitionErr.Reason, "force")

		cancelled, err := svc.Cancel(ctx, po.ID, &domain.CancelPurchaseOrderRequest{
			Force:   true,
			Version: partial.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseOrderStatusCancelled, cancelled.Status)
	})

	t.Run("received order cannot be cancelled", func(t *testing.T) {
		po := testutil.CreateTestOrder(t, db, supplier.ID)
		submitted := submitTestOrder(t, db, svc, po)

		received, err := svc.RecordReceipt(ctx, po.ID, &domain.RecordReceiptRequest{
			Lines:   []domain.ReceiptLineRequest{{LineID: po.Lines[0].ID, Received: 10}},
			Version: submitted.Version,
		})
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, po.ID, &domain.CancelPurchaseOrderRequest{Force: true, Version: received.Version})
		var transitionErr *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr)
	})
}

func TestPurchaseOrderLifecycleService_FlagOverdueOrders(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createLifecycleService(db)
	ctx := createTestContext()
	supplier := testutil.CreateTestSupplier(t, db, "Overdue Supplier")

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	nextWeek := time.Now().UTC().AddDate(0, 0, 7)

	overdue := testutil.CreateTestOrder(t, db, supplier.ID)
	submitTestOrder(t, db, svc, overdue)
	require.NoError(t, db.Model(overdue).Update("expected_arrival_date", yesterday).Error)

	onTime := testutil.CreateTestOrder(t, db, supplier.ID)
	submitTestOrder(t, db, svc, onTime)
	require.NoError(t, db.Model(onTime).Update("expected_arrival_date", nextWeek).Error)

	draft := testutil.CreateTestOrder(t, db, supplier.ID)
	require.NoError(t, db.Model(draft).Update("expected_arrival_date", yesterday).Error)

	flagged, err := svc.FlagOverdueOrders(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	var reloaded domain.PurchaseOrder
	require.NoError(t, db.First(&reloaded, "id = ?", overdue.ID).Error)
	assert.NotNil(t, reloaded.OverdueFlaggedAt)

	// A second run reports nothing new
	flagged, err = svc.FlagOverdueOrders(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
}

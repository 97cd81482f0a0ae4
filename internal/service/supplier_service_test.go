package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/service"
	"github.com/viora-as/procurement-api/internal/testutil"
)

func TestSupplierService_Create(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createSupplierService(db)
	ctx := createTestContext()

	t.Run("create with all fields", func(t *testing.T) {
		req := &domain.CreateSupplierRequest{
			CompanyName:  "Nordisk Stål AS",
			ContactName:  "Kari Nordmann",
			Email:        "kari@nordiskstaal.no",
			Phone:        "+47 22 33 44 55",
			AddressLine1: "Industrigata 12",
			PostalCode:   "0357",
			City:         "Oslo",
			CountryCode:  "NO",
			Notes:        "Preferred steel supplier",
		}

		supplier, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Nordisk Stål AS", supplier.CompanyName)
		assert.Equal(t, "NO", supplier.CountryCode)
		assert.True(t, supplier.IsActive)
		assert.Equal(t, "Test User", supplier.CreatedByName)
		assert.NotEqual(t, uuid.Nil, supplier.ID)
	})
}

func TestSupplierService_GetByID(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createSupplierService(db)
	ctx := createTestContext()

	t.Run("existing supplier", func(t *testing.T) {
		created := testutil.CreateTestSupplier(t, db, "Lookup Supplier")

		supplier, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Lookup Supplier", supplier.CompanyName)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		_, err := svc.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrSupplierNotFound)
	})
}

func TestSupplierService_Update(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createSupplierService(db)
	ctx := createTestContext()

	t.Run("overwrites fields", func(t *testing.T) {
		created := testutil.CreateTestSupplier(t, db, "Before Update")

		req := &domain.UpdateSupplierRequest{
			CompanyName:  "After Update",
			AddressLine1: "Nygata 5",
			PostalCode:   "5003",
			City:         "Bergen",
			CountryCode:  "NO",
		}

		supplier, err := svc.Update(ctx, created.ID, req)
		require.NoError(t, err)
		assert.Equal(t, "After Update", supplier.CompanyName)
		assert.Equal(t, "Bergen", supplier.City)
		assert.Equal(t, "Test User", supplier.UpdatedByName)
	})

	t.Run("reactivates a deactivated supplier", func(t *testing.T) {
		created := testutil.CreateTestSupplier(t, db, "Dormant Supplier")
		require.NoError(t, svc.Deactivate(ctx, created.ID))

		active := true
		req := &domain.UpdateSupplierRequest{
			CompanyName:  "Dormant Supplier",
			AddressLine1: "Testveien 1",
			PostalCode:   "0150",
			City:         "Oslo",
			CountryCode:  "NO",
			IsActive:     &active,
		}

		supplier, err := svc.Update(ctx, created.ID, req)
		require.NoError(t, err)
		assert.True(t, supplier.IsActive)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		req := &domain.UpdateSupplierRequest{
			CompanyName:  "Ghost",
			AddressLine1: "Nowhere 1",
			PostalCode:   "0001",
			City:         "Oslo",
			CountryCode:  "NO",
		}
		_, err := svc.Update(ctx, uuid.New(), req)
		assert.ErrorIs(t, err, service.ErrSupplierNotFound)
	})
}

func TestSupplierService_Deactivate(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createSupplierService(db)
	ctx := createTestContext()

	t.Run("deactivates supplier without open orders", func(t *testing.T) {
		created := testutil.CreateTestSupplier(t, db, "Closable Supplier")

		err := svc.Deactivate(ctx, created.ID)
		require.NoError(t, err)

		supplier, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, supplier.IsActive)
	})

	t.Run("blocked while supplier has open orders", func(t *testing.T) {
		created := testutil.CreateTestSupplier(t, db, "Busy Supplier")
		testutil.CreateTestOrder(t, db, created.ID)

		err := svc.Deactivate(ctx, created.ID)
		assert.ErrorIs(t, err, service.ErrSupplierHasOpenOrders)

		supplier, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, supplier.IsActive)
	})

	t.Run("allowed once orders are terminal", func(t *testing.T) {
		created := testutil.CreateTestSupplier(t, db, "Finished Supplier")
		po := testutil.CreateTestOrder(t, db, created.ID)
		require.NoError(t, db.Model(po).Update("status", domain.PurchaseOrderStatusCancelled).Error)

		err := svc.Deactivate(ctx, created.ID)
		assert.NoError(t, err)
	})
}

func TestSupplierService_List(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createSupplierService(db)
	ctx := createTestContext()

	testutil.CreateTestSupplier(t, db, "Alpha Supplies")
	testutil.CreateTestSupplier(t, db, "Beta Industries")
	inactive := testutil.CreateTestSupplier(t, db, "Gamma Retired")
	require.NoError(t, svc.Deactivate(ctx, inactive.ID))

	t.Run("excludes inactive by default", func(t *testing.T) {
		resp, err := svc.List(ctx, 1, 20, &domain.SupplierFilters{}, defaultSort())
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
	})

	t.Run("includes inactive on request", func(t *testing.T) {
		resp, err := svc.List(ctx, 1, 20, &domain.SupplierFilters{IncludeInactive: true}, defaultSort())
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.Total)
	})

	t.Run("search by company name", func(t *testing.T) {
		resp, err := svc.List(ctx, 1, 20, &domain.SupplierFilters{Search: "beta"}, defaultSort())
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total)
	})

	t.Run("pagination metadata", func(t *testing.T) {
		resp, err := svc.List(ctx, 1, 2, &domain.SupplierFilters{IncludeInactive: true}, defaultSort())
		require.NoError(t, err)
		assert.Equal(t, 2, resp.PageSize)
		assert.Equal(t, 2, resp.TotalPages)
	})
}

package service_test

import (
	"context"
	"testing"

	"github.com/viora-as/procurement-api/internal/auth"
	"github.com/viora-as/procurement-api/internal/repository"
	"github.com/viora-as/procurement-api/internal/service"
	"github.com/viora-as/procurement-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func createTestContext() context.Context {
	userCtx := &auth.UserContext{
		UserID:      "user-1",
		DisplayName: "Test User",
		Email:       "test@example.com",
		Roles:       []string{"purchasing"},
	}
	return auth.WithUserContext(context.Background(), userCtx)
}

func defaultSort() repository.SortConfig {
	return repository.DefaultSortConfig()
}

func createSupplierService(db *gorm.DB) *service.SupplierService {
	return service.NewSupplierService(repository.NewSupplierRepository(db), zap.NewNop())
}

func createOrderService(db *gorm.DB) *service.PurchaseOrderService {
	return service.NewPurchaseOrderService(
		db,
		repository.NewPurchaseOrderRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewTimelineRepository(db),
		zap.NewNop(),
	)
}

func createLifecycleService(db *gorm.DB) *service.PurchaseOrderLifecycleService {
	numberSvc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
	return service.NewPurchaseOrderLifecycleService(
		db,
		repository.NewPurchaseOrderRepository(db),
		repository.NewTimelineRepository(db),
		numberSvc,
		service.NewLoggingStockEventPublisher(zap.NewNop()),
		zap.NewNop(),
	)
}

func createTimelineService(db *gorm.DB) *service.TimelineService {
	return service.NewTimelineService(
		repository.NewPurchaseOrderRepository(db),
		repository.NewTimelineRepository(db),
		zap.NewNop(),
	)
}

package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/viora-as/procurement-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a connection to the test PostgreSQL database.
// It uses environment variables or falls back to docker-compose defaults.
func SetupTestDB(t *testing.T) *gorm.DB {
	host := getEnvOrDefault("DATABASE_HOST", "localhost")
	port := getEnvOrDefault("DATABASE_PORT", "5432")
	user := getEnvOrDefault("DATABASE_USER", "procurement_user")
	password := getEnvOrDefault("DATABASE_PASSWORD", "procurement_password")
	dbname := getEnvOrDefault("DATABASE_NAME", "procurement")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err, "Failed to connect to test database. Ensure PostgreSQL is running.")

	err = db.AutoMigrate(
		&domain.Supplier{},
		&domain.PurchaseOrder{},
		&domain.PurchaseOrderLine{},
		&domain.TimelineEntry{},
		&domain.NumberSequence{},
		&domain.Attachment{},
	)
	require.NoError(t, err, "Failed to migrate test database schema")

	// AutoMigrate builds a plain index for the gorm `index` tag under the
	// same name the migration uses, which would make the CREATE UNIQUE
	// INDEX below a no-op. Drop it so the unique index can take its place.
	err = db.Exec(`DO $$
		BEGIN
			IF EXISTS (
				SELECT 1 FROM pg_class c JOIN pg_index i ON c.oid = i.indexrelid
				WHERE c.relname = 'idx_purchase_orders_order_number' AND NOT i.indisunique
			) THEN
				EXECUTE 'DROP INDEX idx_purchase_orders_order_number';
			END IF;
		END $$;`).Error
	require.NoError(t, err, "Failed to drop non-unique order number index")

	// Drafts carry an empty order number, so uniqueness is a partial
	// index rather than a column constraint. Mirrors the migration.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_purchase_orders_order_number
		ON purchase_orders (order_number) WHERE order_number IS NOT NULL AND order_number <> ''`).Error
	require.NoError(t, err, "Failed to create order number index")

	return db
}

// SetupCleanTestDB connects to the test database and wipes any data
// left behind by earlier runs.
func SetupCleanTestDB(t *testing.T) *gorm.DB {
	db := SetupTestDB(t)
	CleanupTestData(t, db)
	return db
}

// CleanupTestData cleans up test data from all tables.
// This should be called after tests to ensure a clean state.
func CleanupTestData(t *testing.T, db *gorm.DB) {
	// Delete in order to respect foreign key constraints
	tables := []string{
		"attachments",
		"purchase_order_timeline",
		"purchase_order_lines",
		"purchase_orders",
		"suppliers",
		"number_sequences",
	}

	for _, table := range tables {
		err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error
		if err != nil {
			// Table might not exist, that's ok
			t.Logf("Note: Could not clean table %s: %v", table, err)
		}
	}
}

// CreateTestSupplier creates an active supplier and returns it
func CreateTestSupplier(t *testing.T, db *gorm.DB, name string) *domain.Supplier {
	supplier := &domain.Supplier{
		CompanyName:  name,
		ContactName:  "Test Contact",
		Email:        "supplier@example.com",
		Phone:        "12345678",
		AddressLine1: "Testveien 1",
		PostalCode:   "0150",
		City:         "Oslo",
		CountryCode:  "NO",
		IsActive:     true,
	}
	require.NoError(t, db.Create(supplier).Error)
	return supplier
}

// CreateTestOrder creates a draft purchase order with a single line
// against the given supplier and returns it with lines loaded.
func CreateTestOrder(t *testing.T, db *gorm.DB, supplierID uuid.UUID) *domain.PurchaseOrder {
	po := &domain.PurchaseOrder{
		SupplierID:       supplierID,
		LocationID:       "loc-main",
		Status:           domain.PurchaseOrderStatusDraft,
		PaymentTerms:     domain.PaymentTermsNet30,
		SupplierCurrency: "NOK",
		Version:          1,
		Lines: []domain.PurchaseOrderLine{
			{
				ProductID: "prod-1",
				VariantID: "var-1",
				Quantity:  10,
				UnitPrice: 1000,
				TaxRate:   25,
			},
		},
	}
	for i := range po.Lines {
		po.Lines[i].RecalculateLineTotal()
	}
	po.RecalculateTotals()
	require.NoError(t, db.Create(po).Error)
	return po
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

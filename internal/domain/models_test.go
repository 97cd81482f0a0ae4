package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viora-as/procurement-api/internal/domain"
)

func TestPurchaseOrderLine_Totals(t *testing.T) {
	tests := []struct {
		name        string
		quantity    int
		unitPrice   int64
		taxRate     int
		expectedNet int64
		expectedTax int64
	}{
		{
			name:        "standard VAT",
			quantity:    10,
			unitPrice:   1000,
			taxRate:     25,
			expectedNet: 10000,
			expectedTax: 2500,
		},
		{
			name:        "zero tax rate",
			quantity:    3,
			unitPrice:   500,
			taxRate:     0,
			expectedNet: 1500,
			expectedTax: 0,
		},
		{
			name:        "fractional tax below midpoint rounds down",
			quantity:    1,
			unitPrice:   3,
			taxRate:     15, // 0.45 øre rounds down
			expectedNet: 3,
			expectedTax: 0,
		},
		{
			name:        "fractional tax at midpoint rounds up",
			quantity:    1,
			unitPrice:   2,
			taxRate:     25, // 0.50 rounds up to 1
			expectedNet: 2,
			expectedTax: 1,
		},
		{
			name:        "large order stays in integer range",
			quantity:    100000,
			unitPrice:   9999999,
			taxRate:     25,
			expectedNet: 999999900000,
			expectedTax: 249999975000,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			line := domain.PurchaseOrderLine{
				Quantity:  tc.quantity,
				UnitPrice: tc.unitPrice,
				TaxRate:   tc.taxRate,
			}
			net, tax := line.Totals()
			assert.Equal(t, tc.expectedNet, net)
			assert.Equal(t, tc.expectedTax, tax)
		})
	}
}

func TestPurchaseOrderLine_RecalculateLineTotal(t *testing.T) {
	line := domain.PurchaseOrderLine{Quantity: 10, UnitPrice: 1000, TaxRate: 25}
	line.RecalculateLineTotal()
	assert.Equal(t, int64(12500), line.LineTotal)
}

func TestPurchaseOrderLine_Outstanding(t *testing.T) {
	line := domain.PurchaseOrderLine{Quantity: 10, ReceivedQuantity: 6, RejectedQuantity: 1}
	assert.Equal(t, 3, line.Outstanding())
}

func TestPurchaseOrder_RecalculateTotals(t *testing.T) {
	po := domain.PurchaseOrder{
		ShippingTotal: 5000,
		Lines: []domain.PurchaseOrderLine{
			{Quantity: 10, UnitPrice: 1000, TaxRate: 25}, // net 10000, tax 2500
			{Quantity: 2, UnitPrice: 2500, TaxRate: 0},   // net 5000, tax 0
		},
	}

	po.RecalculateTotals()

	assert.Equal(t, int64(15000), po.Subtotal)
	assert.Equal(t, int64(2500), po.TaxTotal)
	assert.Equal(t, int64(22500), po.TotalAmount)
}

func TestPurchaseOrder_RecalculateTotals_NoLines(t *testing.T) {
	po := domain.PurchaseOrder{ShippingTotal: 1000}
	po.RecalculateTotals()
	assert.Equal(t, int64(0), po.Subtotal)
	assert.Equal(t, int64(1000), po.TotalAmount)
}

func TestPurchaseOrder_FullyReconciled(t *testing.T) {
	tests := []struct {
		name     string
		lines    []domain.PurchaseOrderLine
		expected bool
	}{
		{
			name:     "no lines is never reconciled",
			lines:    nil,
			expected: false,
		},
		{
			name: "all received",
			lines: []domain.PurchaseOrderLine{
				{Quantity: 10, ReceivedQuantity: 10},
			},
			expected: true,
		},
		{
			name: "received plus rejected covers ordered",
			lines: []domain.PurchaseOrderLine{
				{Quantity: 10, ReceivedQuantity: 7, RejectedQuantity: 3},
			},
			expected: true,
		},
		{
			name: "one line outstanding",
			lines: []domain.PurchaseOrderLine{
				{Quantity: 10, ReceivedQuantity: 10},
				{Quantity: 5, ReceivedQuantity: 4},
			},
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			po := domain.PurchaseOrder{Lines: tc.lines}
			assert.Equal(t, tc.expected, po.FullyReconciled())
		})
	}
}

func TestPurchaseOrder_HasReceipts(t *testing.T) {
	po := domain.PurchaseOrder{Lines: []domain.PurchaseOrderLine{{Quantity: 5}}}
	assert.False(t, po.HasReceipts())

	po.Lines[0].ReceivedQuantity = 1
	assert.True(t, po.HasReceipts())
}

func TestPurchaseOrderStatus_IsValid(t *testing.T) {
	valid := []domain.PurchaseOrderStatus{
		domain.PurchaseOrderStatusDraft,
		domain.PurchaseOrderStatusOrdered,
		domain.PurchaseOrderStatusPartial,
		domain.PurchaseOrderStatusReceived,
		domain.PurchaseOrderStatusClosed,
		domain.PurchaseOrderStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, domain.PurchaseOrderStatus("shipped").IsValid())
	assert.False(t, domain.PurchaseOrderStatus("").IsValid())
}

func TestPurchaseOrderStatus_IsOpen(t *testing.T) {
	assert.True(t, domain.PurchaseOrderStatusDraft.IsOpen())
	assert.True(t, domain.PurchaseOrderStatusOrdered.IsOpen())
	assert.True(t, domain.PurchaseOrderStatusPartial.IsOpen())
	assert.False(t, domain.PurchaseOrderStatusReceived.IsOpen())
	assert.False(t, domain.PurchaseOrderStatusClosed.IsOpen())
	assert.False(t, domain.PurchaseOrderStatusCancelled.IsOpen())
}

func TestPaymentTerms_IsValid(t *testing.T) {
	assert.True(t, domain.PaymentTermsNet30.IsValid())
	assert.True(t, domain.PaymentTermsNone.IsValid())
	assert.False(t, domain.PaymentTerms("net_90").IsValid())
}

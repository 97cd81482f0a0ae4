package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an id when the caller did not set one.
// The migrations also carry gen_random_uuid() defaults for inserts
// that bypass GORM.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Supplier represents a vendor purchase orders are placed with.
// Suppliers are never hard-deleted: historical orders keep referencing
// them, so Delete only clears IsActive.
type Supplier struct {
	BaseModel
	CompanyName   string `gorm:"type:varchar(200);not null;index;column:company_name"`
	ContactName   string `gorm:"type:varchar(200);column:contact_name"`
	Email         string `gorm:"type:varchar(255)"`
	Phone         string `gorm:"type:varchar(50)"`
	AddressLine1  string `gorm:"type:varchar(500);not null;column:address_line_1"`
	AddressLine2  string `gorm:"type:varchar(500);column:address_line_2"`
	PostalCode    string `gorm:"type:varchar(20);not null;column:postal_code"`
	City          string `gorm:"type:varchar(100);not null"`
	Region        string `gorm:"type:varchar(100)"`
	CountryCode   string `gorm:"type:varchar(2);not null;column:country_code"` // ISO 3166-1 alpha-2
	Notes         string `gorm:"type:text"`
	IsActive      bool   `gorm:"not null;default:true;column:is_active;index"`
	CreatedByID   string `gorm:"type:varchar(100);column:created_by_id"`
	CreatedByName string `gorm:"type:varchar(200);column:created_by_name"`
	UpdatedByID   string `gorm:"type:varchar(100);column:updated_by_id"`
	UpdatedByName string `gorm:"type:varchar(200);column:updated_by_name"`
}

// PurchaseOrderStatus represents where an order is in its lifecycle
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusOrdered   PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusPartial   PurchaseOrderStatus = "partial"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusClosed    PurchaseOrderStatus = "closed"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// IsValid checks if the PurchaseOrderStatus is a valid enum value
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusOrdered, PurchaseOrderStatusPartial,
		PurchaseOrderStatusReceived, PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether an order in this status can never move again.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusClosed || s == PurchaseOrderStatusCancelled
}

// IsOpen reports whether an order in this status still blocks supplier
// deactivation (draft, ordered or partial).
func (s PurchaseOrderStatus) IsOpen() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusOrdered, PurchaseOrderStatusPartial:
		return true
	}
	return false
}

// PaymentTerms represents agreed payment conditions with the supplier
type PaymentTerms string

const (
	PaymentTermsNone           PaymentTerms = "none"
	PaymentTermsPrepayment     PaymentTerms = "prepayment"
	PaymentTermsCashOnDelivery PaymentTerms = "cash_on_delivery"
	PaymentTermsNet30          PaymentTerms = "net_30"
	PaymentTermsNet60          PaymentTerms = "net_60"
)

// IsValid checks if the PaymentTerms is a valid enum value
func (p PaymentTerms) IsValid() bool {
	switch p {
	case PaymentTermsNone, PaymentTermsPrepayment, PaymentTermsCashOnDelivery, PaymentTermsNet30, PaymentTermsNet60:
		return true
	}
	return false
}

// PurchaseOrder is the order header. All monetary fields are integer
// minor currency units (øre for NOK); floats are never used for money.
type PurchaseOrder struct {
	BaseModel
	// OrderNumber uniqueness is a partial index in the migration:
	// drafts have no number yet, so an empty value must not collide.
	OrderNumber         string              `gorm:"type:varchar(50);index;column:order_number"`
	SupplierID          uuid.UUID           `gorm:"type:uuid;not null;index;column:supplier_id"`
	Supplier            *Supplier           `gorm:"foreignKey:SupplierID"`
	LocationID          string              `gorm:"type:varchar(100);not null;column:location_id"` // external stock location reference
	Status              PurchaseOrderStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	PaymentTerms        PaymentTerms        `gorm:"type:varchar(50);not null;default:'none';column:payment_terms"`
	SupplierCurrency    string              `gorm:"type:varchar(3);not null;default:'NOK';column:supplier_currency"` // ISO 4217
	ExpectedArrivalDate *time.Time          `gorm:"type:date;column:expected_arrival_date"`
	ShippingCompany     string              `gorm:"type:varchar(200);column:shipping_company"`
	TrackingNumber      string              `gorm:"type:varchar(100);column:tracking_number"`
	ReferenceNumber     string              `gorm:"type:varchar(100);column:reference_number"`
	NotesToSupplier     string              `gorm:"type:text;column:notes_to_supplier"`
	Tags                []string            `gorm:"serializer:json;type:text"`
	Subtotal            int64               `gorm:"not null;default:0"`
	TaxTotal            int64               `gorm:"not null;default:0;column:tax_total"`
	ShippingTotal       int64               `gorm:"not null;default:0;column:shipping_total"`
	TotalAmount         int64               `gorm:"not null;default:0;column:total_amount"`
	Version             int                 `gorm:"not null;default:1"` // optimistic concurrency token
	CreatedByID         string              `gorm:"type:varchar(100);column:created_by_id"`
	CreatedByName       string              `gorm:"type:varchar(200);column:created_by_name"`
	OrderedByID         string              `gorm:"type:varchar(100);column:ordered_by_id"`
	OrderedByName       string              `gorm:"type:varchar(200);column:ordered_by_name"`
	OrderedAt           *time.Time          `gorm:"column:ordered_at"`
	ClosedByID          string              `gorm:"type:varchar(100);column:closed_by_id"`
	ClosedByName        string              `gorm:"type:varchar(200);column:closed_by_name"`
	ClosedAt            *time.Time          `gorm:"column:closed_at"`
	OverdueFlaggedAt    *time.Time          `gorm:"column:overdue_flagged_at"`
	Lines               []PurchaseOrderLine `gorm:"foreignKey:PurchaseOrderID"`
	Timeline            []TimelineEntry     `gorm:"foreignKey:PurchaseOrderID"`
}

// RecalculateTotals recomputes the monetary rollups from the lines.
// TotalAmount always equals Subtotal + TaxTotal + ShippingTotal.
func (po *PurchaseOrder) RecalculateTotals() {
	var subtotal, taxTotal int64
	for i := range po.Lines {
		net, tax := po.Lines[i].Totals()
		subtotal += net
		taxTotal += tax
	}
	po.Subtotal = subtotal
	po.TaxTotal = taxTotal
	po.TotalAmount = subtotal + taxTotal + po.ShippingTotal
}

// FullyReconciled reports whether every line has received+rejected equal
// to the ordered quantity. Orders with no lines are never reconciled.
func (po *PurchaseOrder) FullyReconciled() bool {
	if len(po.Lines) == 0 {
		return false
	}
	for i := range po.Lines {
		l := &po.Lines[i]
		if l.ReceivedQuantity+l.RejectedQuantity != l.Quantity {
			return false
		}
	}
	return true
}

// HasReceipts reports whether any quantity has been received on any line.
func (po *PurchaseOrder) HasReceipts() bool {
	for i := range po.Lines {
		if po.Lines[i].ReceivedQuantity > 0 {
			return true
		}
	}
	return false
}

// PurchaseOrderLine is one SKU entry on an order with ordered, received
// and rejected quantity accounting.
type PurchaseOrderLine struct {
	BaseModel
	PurchaseOrderID  uuid.UUID `gorm:"type:uuid;not null;index;column:purchase_order_id"`
	ProductID        string    `gorm:"type:varchar(100);not null;column:product_id"` // external catalog reference
	VariantID        string    `gorm:"type:varchar(100);not null;column:variant_id"`
	SupplierSKU      string    `gorm:"type:varchar(100);column:supplier_sku"`
	Quantity         int       `gorm:"not null"`
	ReceivedQuantity int       `gorm:"not null;default:0;column:received_quantity"`
	RejectedQuantity int       `gorm:"not null;default:0;column:rejected_quantity"`
	UnitPrice        int64     `gorm:"not null;column:unit_price"`         // øre
	TaxRate          int       `gorm:"not null;default:0;column:tax_rate"` // percent, 0-100
	LineTotal        int64     `gorm:"not null;default:0;column:line_total"`
}

// Totals returns the net amount and the tax amount for the line.
// Tax is rounded half-up. The rounding rule lives here so header rollups
// and line totals can never disagree.
func (l *PurchaseOrderLine) Totals() (net int64, tax int64) {
	net = int64(l.Quantity) * l.UnitPrice
	tax = (net*int64(l.TaxRate) + 50) / 100
	return net, tax
}

// RecalculateLineTotal recomputes LineTotal (net plus tax) after a
// quantity or price change.
func (l *PurchaseOrderLine) RecalculateLineTotal() {
	net, tax := l.Totals()
	l.LineTotal = net + tax
}

// Outstanding returns the quantity not yet received or rejected.
func (l *PurchaseOrderLine) Outstanding() int {
	return l.Quantity - l.ReceivedQuantity - l.RejectedQuantity
}

// TimelineAction represents the kind of event recorded on an order's timeline
type TimelineAction string

const (
	TimelineActionCreated   TimelineAction = "created"
	TimelineActionOrdered   TimelineAction = "ordered"
	TimelineActionReceived  TimelineAction = "received"
	TimelineActionClosed    TimelineAction = "closed"
	TimelineActionCancelled TimelineAction = "cancelled"
	TimelineActionComment   TimelineAction = "comment"
	TimelineActionEdited    TimelineAction = "edited"
)

// IsValid checks if the TimelineAction is a valid enum value
func (a TimelineAction) IsValid() bool {
	switch a {
	case TimelineActionCreated, TimelineActionOrdered, TimelineActionReceived,
		TimelineActionClosed, TimelineActionCancelled, TimelineActionComment, TimelineActionEdited:
		return true
	}
	return false
}

// TimelineEntry is an append-only audit record. Entries are never updated
// or deleted; the autoincrement id doubles as the chronological ordering.
type TimelineEntry struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement"`
	PurchaseOrderID uuid.UUID      `gorm:"type:uuid;not null;index;column:purchase_order_id"`
	Action          TimelineAction `gorm:"type:varchar(50);not null"`
	UserID          *string        `gorm:"type:varchar(100);column:user_id"` // nil for system actions
	UserName        string         `gorm:"type:varchar(200);column:user_name"`
	Message         string         `gorm:"type:varchar(2000);not null"`
	Metadata        datatypes.JSON `gorm:"column:metadata"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName overrides the default table name to match the migration
func (TimelineEntry) TableName() string {
	return "purchase_order_timeline"
}

// NumberSequence backs order number generation, one row per year.
type NumberSequence struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Year         int       `gorm:"not null;uniqueIndex"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Attachment is a document uploaded against a purchase order, e.g. a
// supplier confirmation or a packing slip. The binary lives in storage;
// this row is the metadata.
type Attachment struct {
	BaseModel
	PurchaseOrderID uuid.UUID `gorm:"type:uuid;not null;index;column:purchase_order_id"`
	Filename        string    `gorm:"type:varchar(255);not null"`
	ContentType     string    `gorm:"type:varchar(100);not null;column:content_type"`
	Size            int64     `gorm:"not null"`
	StoragePath     string    `gorm:"type:varchar(500);not null;unique;column:storage_path"`
	UploadedByID    string    `gorm:"type:varchar(100);column:uploaded_by_id"`
	UploadedByName  string    `gorm:"type:varchar(200);column:uploaded_by_name"`
}

package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

type SupplierDTO struct {
	ID            uuid.UUID `json:"id"`
	CompanyName   string    `json:"companyName"`
	ContactName   string    `json:"contactName,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	AddressLine1  string    `json:"addressLine1"`
	AddressLine2  string    `json:"addressLine2,omitempty"`
	PostalCode    string    `json:"postalCode"`
	City          string    `json:"city"`
	Region        string    `json:"region,omitempty"`
	CountryCode   string    `json:"countryCode"`
	Notes         string    `json:"notes,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedByName string    `json:"createdByName,omitempty"`
	UpdatedByName string    `json:"updatedByName,omitempty"`
	CreatedAt     string    `json:"createdAt"` // ISO 8601
	UpdatedAt     string    `json:"updatedAt"` // ISO 8601
}

type PurchaseOrderDTO struct {
	ID                  uuid.UUID              `json:"id"`
	OrderNumber         string                 `json:"orderNumber,omitempty"`
	SupplierID          uuid.UUID              `json:"supplierId"`
	SupplierName        string                 `json:"supplierName,omitempty"`
	LocationID          string                 `json:"locationId"`
	Status              PurchaseOrderStatus    `json:"status"`
	PaymentTerms        PaymentTerms           `json:"paymentTerms"`
	SupplierCurrency    string                 `json:"supplierCurrency"`
	ExpectedArrivalDate *string                `json:"expectedArrivalDate,omitempty"` // ISO 8601 date
	ShippingCompany     string                 `json:"shippingCompany,omitempty"`
	TrackingNumber      string                 `json:"trackingNumber,omitempty"`
	ReferenceNumber     string                 `json:"referenceNumber,omitempty"`
	NotesToSupplier     string                 `json:"notesToSupplier,omitempty"`
	Tags                []string               `json:"tags,omitempty"`
	Subtotal            int64                  `json:"subtotal"`
	TaxTotal            int64                  `json:"taxTotal"`
	ShippingTotal       int64                  `json:"shippingTotal"`
	TotalAmount         int64                  `json:"totalAmount"`
	Version             int                    `json:"version"`
	CreatedByName       string                 `json:"createdByName,omitempty"`
	OrderedByName       string                 `json:"orderedByName,omitempty"`
	OrderedAt           string                 `json:"orderedAt,omitempty"`
	ClosedByName        string                 `json:"closedByName,omitempty"`
	ClosedAt            string                 `json:"closedAt,omitempty"`
	Lines               []PurchaseOrderLineDTO `json:"lines"`
	CreatedAt           string                 `json:"createdAt"` // ISO 8601
	UpdatedAt           string                 `json:"updatedAt"` // ISO 8601
}

type PurchaseOrderLineDTO struct {
	ID               uuid.UUID `json:"id"`
	ProductID        string    `json:"productId"`
	VariantID        string    `json:"variantId"`
	SupplierSKU      string    `json:"supplierSku,omitempty"`
	Quantity         int       `json:"quantity"`
	ReceivedQuantity int       `json:"receivedQuantity"`
	RejectedQuantity int       `json:"rejectedQuantity"`
	UnitPrice        int64     `json:"unitPrice"`
	TaxRate          int       `json:"taxRate"`
	LineTotal        int64     `json:"lineTotal"`
}

type TimelineEntryDTO struct {
	ID        uint64          `json:"id"`
	Action    TimelineAction  `json:"action"`
	UserID    *string         `json:"userId,omitempty"`
	UserName  string          `json:"userName,omitempty"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"createdAt"` // ISO 8601
}

type AttachmentDTO struct {
	ID             uuid.UUID `json:"id"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"contentType"`
	Size           int64     `json:"size"`
	UploadedByName string    `json:"uploadedByName,omitempty"`
	CreatedAt      string    `json:"createdAt"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Pagination response wrapper
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

type CreateSupplierRequest struct {
	CompanyName  string `json:"companyName" validate:"required,max=200"`
	ContactName  string `json:"contactName,omitempty" validate:"max=200"`
	Email        string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone        string `json:"phone,omitempty" validate:"max=50"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=500"`
	AddressLine2 string `json:"addressLine2,omitempty" validate:"max=500"`
	PostalCode   string `json:"postalCode" validate:"required,max=20"`
	City         string `json:"city" validate:"required,max=100"`
	Region       string `json:"region,omitempty" validate:"max=100"`
	CountryCode  string `json:"countryCode" validate:"required,iso3166_1_alpha2"`
	Notes        string `json:"notes,omitempty"`
}

type UpdateSupplierRequest struct {
	CompanyName  string `json:"companyName" validate:"required,max=200"`
	ContactName  string `json:"contactName,omitempty" validate:"max=200"`
	Email        string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone        string `json:"phone,omitempty" validate:"max=50"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=500"`
	AddressLine2 string `json:"addressLine2,omitempty" validate:"max=500"`
	PostalCode   string `json:"postalCode" validate:"required,max=20"`
	City         string `json:"city" validate:"required,max=100"`
	Region       string `json:"region,omitempty" validate:"max=100"`
	CountryCode  string `json:"countryCode" validate:"required,iso3166_1_alpha2"`
	Notes        string `json:"notes,omitempty"`
	IsActive     *bool  `json:"isActive,omitempty"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID          uuid.UUID                        `json:"supplierId" validate:"required"`
	LocationID          string                           `json:"locationId" validate:"required,max=100"`
	OrderNumber         string                           `json:"orderNumber,omitempty" validate:"max=50"`
	PaymentTerms        PaymentTerms                     `json:"paymentTerms,omitempty"`
	SupplierCurrency    string                           `json:"supplierCurrency,omitempty" validate:"omitempty,iso4217"`
	ExpectedArrivalDate *time.Time                       `json:"expectedArrivalDate,omitempty"`
	ShippingCompany     string                           `json:"shippingCompany,omitempty" validate:"max=200"`
	TrackingNumber      string                           `json:"trackingNumber,omitempty" validate:"max=100"`
	ReferenceNumber     string                           `json:"referenceNumber,omitempty" validate:"max=100"`
	NotesToSupplier     string                           `json:"notesToSupplier,omitempty" validate:"max=5000"`
	Tags                []string                         `json:"tags,omitempty" validate:"max=20,dive,max=50"`
	ShippingTotal       int64                            `json:"shippingTotal,omitempty" validate:"gte=0"`
	Lines               []CreatePurchaseOrderLineRequest `json:"lines,omitempty" validate:"dive"`
}

// UpdatePurchaseOrderRequest edits header fields of a draft order.
// Version carries the optimistic concurrency token the caller last read.
type UpdatePurchaseOrderRequest struct {
	SupplierID          *uuid.UUID   `json:"supplierId,omitempty"`
	LocationID          string       `json:"locationId,omitempty" validate:"max=100"`
	OrderNumber         *string      `json:"orderNumber,omitempty" validate:"omitempty,max=50"`
	PaymentTerms        PaymentTerms `json:"paymentTerms,omitempty"`
	SupplierCurrency    string       `json:"supplierCurrency,omitempty" validate:"omitempty,iso4217"`
	ExpectedArrivalDate *time.Time   `json:"expectedArrivalDate,omitempty"`
	ShippingCompany     *string      `json:"shippingCompany,omitempty" validate:"omitempty,max=200"`
	TrackingNumber      *string      `json:"trackingNumber,omitempty" validate:"omitempty,max=100"`
	ReferenceNumber     *string      `json:"referenceNumber,omitempty" validate:"omitempty,max=100"`
	NotesToSupplier     *string      `json:"notesToSupplier,omitempty" validate:"omitempty,max=5000"`
	Tags                []string     `json:"tags,omitempty" validate:"max=20,dive,max=50"`
	ShippingTotal       *int64       `json:"shippingTotal,omitempty" validate:"omitempty,gte=0"`
	Version             int          `json:"version" validate:"required,gte=1"`
}

type CreatePurchaseOrderLineRequest struct {
	ProductID   string `json:"productId" validate:"required,max=100"`
	VariantID   string `json:"variantId" validate:"required,max=100"`
	SupplierSKU string `json:"supplierSku,omitempty" validate:"max=100"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice   int64  `json:"unitPrice" validate:"gte=0"`
	TaxRate     int    `json:"taxRate,omitempty" validate:"gte=0,lte=100"`
}

type UpdatePurchaseOrderLineRequest struct {
	SupplierSKU *string `json:"supplierSku,omitempty" validate:"omitempty,max=100"`
	Quantity    *int    `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice   *int64  `json:"unitPrice,omitempty" validate:"omitempty,gte=0"`
	TaxRate     *int    `json:"taxRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Version     int     `json:"version" validate:"required,gte=1"`
}

// SubmitPurchaseOrderRequest moves a draft to ordered.
type SubmitPurchaseOrderRequest struct {
	Version int `json:"version" validate:"required,gte=1"`
}

// ReceiptLineRequest records quantities for one line in a receipt.
type ReceiptLineRequest struct {
	LineID   uuid.UUID `json:"lineId" validate:"required"`
	Received int       `json:"received" validate:"gte=0"`
	Rejected int       `json:"rejected,omitempty" validate:"gte=0"`
}

// RecordReceiptRequest registers a (possibly partial) delivery against
// an ordered or partial order.
type RecordReceiptRequest struct {
	Lines   []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
	Note    string               `json:"note,omitempty" validate:"max=2000"`
	Version int                  `json:"version" validate:"required,gte=1"`
}

type ClosePurchaseOrderRequest struct {
	Note    string `json:"note,omitempty" validate:"max=2000"`
	Version int    `json:"version" validate:"required,gte=1"`
}

// CancelPurchaseOrderRequest cancels an order. Force is required when
// the order already has received quantities (partial status).
type CancelPurchaseOrderRequest struct {
	Reason  string `json:"reason,omitempty" validate:"max=2000"`
	Force   bool   `json:"force,omitempty"`
	Version int    `json:"version" validate:"required,gte=1"`
}

// AddCommentRequest appends a user comment to an order's timeline.
type AddCommentRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// PurchaseOrderFilters provides filtering options for order list queries
type PurchaseOrderFilters struct {
	Status     *PurchaseOrderStatus `json:"status,omitempty"`
	SupplierID *uuid.UUID           `json:"supplierId,omitempty"`
	LocationID string               `json:"locationId,omitempty"`
	Tag        string               `json:"tag,omitempty"`
	Search     string               `json:"search,omitempty"` // matches order number, reference, tracking
	Overdue    bool                 `json:"overdue,omitempty"`
}

// SupplierFilters provides filtering options for supplier list queries
type SupplierFilters struct {
	Search          string `json:"search,omitempty"` // matches company name, contact, email
	CountryCode     string `json:"countryCode,omitempty"`
	IncludeInactive bool   `json:"includeInactive,omitempty"`
}

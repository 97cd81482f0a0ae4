package mapper

import (
	"encoding/json"

	"github.com/viora-as/procurement-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ToSupplierDTO converts Supplier to SupplierDTO
func ToSupplierDTO(supplier *domain.Supplier) domain.SupplierDTO {
	return domain.SupplierDTO{
		ID:            supplier.ID,
		CompanyName:   supplier.CompanyName,
		ContactName:   supplier.ContactName,
		Email:         supplier.Email,
		Phone:         supplier.Phone,
		AddressLine1:  supplier.AddressLine1,
		AddressLine2:  supplier.AddressLine2,
		PostalCode:    supplier.PostalCode,
		City:          supplier.City,
		Region:        supplier.Region,
		CountryCode:   supplier.CountryCode,
		Notes:         supplier.Notes,
		IsActive:      supplier.IsActive,
		CreatedByName: supplier.CreatedByName,
		UpdatedByName: supplier.UpdatedByName,
		CreatedAt:     supplier.CreatedAt.Format(timeFormat),
		UpdatedAt:     supplier.UpdatedAt.Format(timeFormat),
	}
}

// ToPurchaseOrderDTO converts PurchaseOrder to PurchaseOrderDTO
func ToPurchaseOrderDTO(po *domain.PurchaseOrder) domain.PurchaseOrderDTO {
	dto := domain.PurchaseOrderDTO{
		ID:               po.ID,
		OrderNumber:      po.OrderNumber,
		SupplierID:       po.SupplierID,
		LocationID:       po.LocationID,
		Status:           po.Status,
		PaymentTerms:     po.PaymentTerms,
		SupplierCurrency: po.SupplierCurrency,
		ShippingCompany:  po.ShippingCompany,
		TrackingNumber:   po.TrackingNumber,
		ReferenceNumber:  po.ReferenceNumber,
		NotesToSupplier:  po.NotesToSupplier,
		Tags:             po.Tags,
		Subtotal:         po.Subtotal,
		TaxTotal:         po.TaxTotal,
		ShippingTotal:    po.ShippingTotal,
		TotalAmount:      po.TotalAmount,
		Version:          po.Version,
		CreatedByName:    po.CreatedByName,
		OrderedByName:    po.OrderedByName,
		ClosedByName:     po.ClosedByName,
		Lines:            make([]domain.PurchaseOrderLineDTO, 0, len(po.Lines)),
		CreatedAt:        po.CreatedAt.Format(timeFormat),
		UpdatedAt:        po.UpdatedAt.Format(timeFormat),
	}

	if po.Supplier != nil {
		dto.SupplierName = po.Supplier.CompanyName
	}
	if po.ExpectedArrivalDate != nil {
		d := po.ExpectedArrivalDate.Format("2006-01-02")
		dto.ExpectedArrivalDate = &d
	}
	if po.OrderedAt != nil {
		dto.OrderedAt = po.OrderedAt.Format(timeFormat)
	}
	if po.ClosedAt != nil {
		dto.ClosedAt = po.ClosedAt.Format(timeFormat)
	}

	for i := range po.Lines {
		dto.Lines = append(dto.Lines, ToPurchaseOrderLineDTO(&po.Lines[i]))
	}

	return dto
}

// ToPurchaseOrderLineDTO converts PurchaseOrderLine to PurchaseOrderLineDTO
func ToPurchaseOrderLineDTO(line *domain.PurchaseOrderLine) domain.PurchaseOrderLineDTO {
	return domain.PurchaseOrderLineDTO{
		ID:               line.ID,
		ProductID:        line.ProductID,
		VariantID:        line.VariantID,
		SupplierSKU:      line.SupplierSKU,
		Quantity:         line.Quantity,
		ReceivedQuantity: line.ReceivedQuantity,
		RejectedQuantity: line.RejectedQuantity,
		UnitPrice:        line.UnitPrice,
		TaxRate:          line.TaxRate,
		LineTotal:        line.LineTotal,
	}
}

// ToTimelineEntryDTO converts TimelineEntry to TimelineEntryDTO
func ToTimelineEntryDTO(entry *domain.TimelineEntry) domain.TimelineEntryDTO {
	dto := domain.TimelineEntryDTO{
		ID:        entry.ID,
		Action:    entry.Action,
		UserID:    entry.UserID,
		UserName:  entry.UserName,
		Message:   entry.Message,
		CreatedAt: entry.CreatedAt.Format(timeFormat),
	}
	if len(entry.Metadata) > 0 {
		dto.Metadata = json.RawMessage(entry.Metadata)
	}
	return dto
}

// ToTimelineEntryDTOs converts a slice of TimelineEntry to DTOs
func ToTimelineEntryDTOs(entries []domain.TimelineEntry) []domain.TimelineEntryDTO {
	dtos := make([]domain.TimelineEntryDTO, 0, len(entries))
	for i := range entries {
		dtos = append(dtos, ToTimelineEntryDTO(&entries[i]))
	}
	return dtos
}

// ToAttachmentDTO converts Attachment to AttachmentDTO
func ToAttachmentDTO(att *domain.Attachment) domain.AttachmentDTO {
	return domain.AttachmentDTO{
		ID:             att.ID,
		Filename:       att.Filename,
		ContentType:    att.ContentType,
		Size:           att.Size,
		UploadedByName: att.UploadedByName,
		CreatedAt:      att.CreatedAt.Format(timeFormat),
	}
}

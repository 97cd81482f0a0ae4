package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptEventLine carries the delta quantities booked for one line in
// a single receipt, not cumulative totals.
type ReceiptEventLine struct {
	LineID    uuid.UUID `json:"lineId"`
	ProductID string    `json:"productId"`
	VariantID string    `json:"variantId"`
	Received  int       `json:"received"`
	Rejected  int       `json:"rejected"`
}

// ReceiptEvent is emitted after a receipt has been committed, so stock
// levels at the receiving location can be adjusted downstream.
type ReceiptEvent struct {
	OrderID     uuid.UUID          `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	LocationID  string             `json:"locationId"`
	ReceivedAt  time.Time          `json:"receivedAt"`
	Lines       []ReceiptEventLine `json:"lines"`
}

// StockEventPublisher notifies downstream systems about received goods.
// Publishing happens after the database transaction commits; a failed
// publish must not roll back the receipt.
type StockEventPublisher interface {
	PublishReceipt(ctx context.Context, event ReceiptEvent)
}

// LoggingStockEventPublisher writes receipt events to the structured log.
// It stands in for a real message transport in environments without one.
type LoggingStockEventPublisher struct {
	logger *zap.Logger
}

// NewLoggingStockEventPublisher creates a new LoggingStockEventPublisher
func NewLoggingStockEventPublisher(logger *zap.Logger) *LoggingStockEventPublisher {
	return &LoggingStockEventPublisher{logger: logger}
}

// PublishReceipt logs the receipt event
func (p *LoggingStockEventPublisher) PublishReceipt(_ context.Context, event ReceiptEvent) {
	p.logger.Info("stock receipt event",
		zap.String("order_id", event.OrderID.String()),
		zap.String("order_number", event.OrderNumber),
		zap.String("location_id", event.LocationID),
		zap.Time("received_at", event.ReceivedAt),
		zap.Any("lines", event.Lines),
	)
}

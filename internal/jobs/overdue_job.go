package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OverdueJobName is the name of the overdue order check job
const OverdueJobName = "overdue_check"

// OverdueOrderService defines the interface for flagging overdue orders.
// This interface allows the job to call the service without importing the
// service package directly.
type OverdueOrderService interface {
	// FlagOverdueOrders flags open orders whose expected arrival date has
	// passed without the order being fully received. Each order is flagged
	// at most once. Returns the number of orders flagged.
	FlagOverdueOrders(ctx context.Context, asOf time.Time) (flagged int, err error)
}

// OverdueJob scans for ordered and partial orders past their expected
// arrival date and marks them overdue.
type OverdueJob struct {
	orderService OverdueOrderService
	logger       *zap.Logger
	timeout      time.Duration
}

// NewOverdueJob creates a new overdue check job.
// The timeout controls how long a single run is allowed to take.
func NewOverdueJob(orderService OverdueOrderService, logger *zap.Logger, timeout time.Duration) *OverdueJob {
	return &OverdueJob{
		orderService: orderService,
		logger:       logger,
		timeout:      timeout,
	}
}

// Run executes the overdue check.
// This is called by the scheduler according to the cron expression.
func (j *OverdueJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting overdue order check")

	flagged, err := j.orderService.FlagOverdueOrders(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("overdue order check failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("overdue order check completed",
		zap.Int("flagged", flagged),
		zap.Duration("duration", time.Since(start)))
}

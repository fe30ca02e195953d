package jobs

import (
	"context"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type lowStockHandler interface {
	Handle(ctx context.Context, query queries.GetLowStockQuery) ([]queries.GetLowStockQueryResponse, error)
}

// LowStockJob reports stock records at or below their reorder point through
// the fulfillment_low_stock_records gauge and a warning per record.
type LowStockJob struct {
	handler  lowStockHandler
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewLowStockJob(handler lowStockHandler, schedule string, logger *zap.Logger) *LowStockJob {
	return &LowStockJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With(zap.String("component", "low_stock_job")),
	}
}

func (j *LowStockJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("low stock job started", zap.String("schedule", j.schedule))
	return nil
}

func (j *LowStockJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("low stock job stopped")
}

func (j *LowStockJob) run(ctx context.Context) {
	records, err := j.handler.Handle(ctx, queries.NewGetLowStockQuery(nil))
	if err != nil {
		// keep the last reading rather than report zero
		j.logger.Error("low stock check failed", zap.Error(err))
		return
	}

	metrics.LowStockRecords.Set(float64(len(records)))
	for _, r := range records {
		j.logger.Warn("stock at or below reorder point",
			zap.Stringer("stockRecordId", r.StockRecordID),
			zap.Stringer("productId", r.ProductID),
			zap.Stringer("warehouseId", r.WarehouseID),
			zap.Int("available", r.Available),
			zap.Int("reorderPoint", r.ReorderPoint),
		)
	}
}

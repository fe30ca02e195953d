package commands

import (
	"context"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/kernel"

	"go.uber.org/zap"
)

// AdjustStockCommandHandler applies a manual correction through the ledger.
type AdjustStockCommandHandler struct {
	uowFactory StockUoWFactory
	log        *zap.Logger
	now        Clock
}

func NewAdjustStockCommandHandler(uowFactory StockUoWFactory, log *zap.Logger) AdjustStockCommandHandler {
	return AdjustStockCommandHandler{
		uowFactory: uowFactory,
		log:        log,
		now:        utcNow,
	}
}

func (h *AdjustStockCommandHandler) Handle(ctx context.Context, cmd AdjustStockCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	l := ledger.New(uow.StockRepository(), h.log).WithClock(h.now)
	if _, err := l.Adjust(ctx, ledger.Adjustment{
		Location:  cmd.Location(),
		Delta:     cmd.Delta(),
		Reason:    cmd.Reason(),
		Reference: kernel.RefTo(kernel.EntityAdjustment, kernel.NewUUID()),
		Dispose:   cmd.Dispose(),
	}); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

package commands

import (
	"context"

	"fulfillment/internal/core/application/ledger"

	"go.uber.org/zap"
)

// RestockStockCommandHandler adds received goods, creating the stock record
// the first time a warehouse carries the product.
type RestockStockCommandHandler struct {
	uowFactory StockUoWFactory
	log        *zap.Logger
	now        Clock
}

func NewRestockStockCommandHandler(uowFactory StockUoWFactory, log *zap.Logger) RestockStockCommandHandler {
	return RestockStockCommandHandler{
		uowFactory: uowFactory,
		log:        log,
		now:        utcNow,
	}
}

func (h *RestockStockCommandHandler) Handle(ctx context.Context, cmd RestockStockCommand) error {
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

	delivery := cmd.Delivery()
	l := ledger.New(uow.StockRepository(), h.log).WithClock(h.now)
	if _, err := l.RestockAt(ctx, delivery.Location, delivery.receipt()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

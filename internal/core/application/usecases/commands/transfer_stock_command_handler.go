package commands

import (
	"context"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/kernel"

	"go.uber.org/zap"
)

// TransferStockCommandHandler moves stock between warehouses in one
// transaction; both legs commit or neither does.
type TransferStockCommandHandler struct {
	uowFactory StockUoWFactory
	log        *zap.Logger
	now        Clock
}

func NewTransferStockCommandHandler(uowFactory StockUoWFactory, log *zap.Logger) TransferStockCommandHandler {
	return TransferStockCommandHandler{
		uowFactory: uowFactory,
		log:        log,
		now:        utcNow,
	}
}

func (h *TransferStockCommandHandler) Handle(ctx context.Context, cmd TransferStockCommand) error {
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
	if _, _, err := l.Transfer(ctx, ledger.TransferRequest{
		SourceStockRecordID: cmd.SourceStockRecordID(),
		DestWarehouseID:     cmd.DestWarehouseID(),
		Quantity:            cmd.Quantity(),
		Reference:           kernel.RefTo(kernel.EntityTransfer, cmd.TransferID()),
		Note:                cmd.Note(),
	}); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

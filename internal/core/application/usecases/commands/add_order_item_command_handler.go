package commands

import (
	"context"

	"fulfillment/internal/core/application/ledger"

	"go.uber.org/zap"
)

// AddOrderItemCommandHandler prices the new line, reserves its stock and
// recomputes shipping in one transaction.
type AddOrderItemCommandHandler struct {
	uowFactory UoWFactory
	pricing    Pricing
	log        *zap.Logger
	now        Clock
}

func NewAddOrderItemCommandHandler(uowFactory UoWFactory, pricing Pricing, log *zap.Logger) AddOrderItemCommandHandler {
	return AddOrderItemCommandHandler{
		uowFactory: uowFactory,
		pricing:    pricing,
		log:        log,
		now:        utcNow,
	}
}

func (h *AddOrderItemCommandHandler) Handle(ctx context.Context, cmd AddOrderItemCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	item, err := h.pricing.newItem(ctx, cmd.Line())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	now := h.now()
	if err = o.AddItem(item, now); err != nil {
		return err
	}
	l := ledger.New(uow.StockRepository(), h.log).WithClock(h.now)
	if err = reserveItem(ctx, l, o.ID(), item); err != nil {
		return err
	}
	if err = o.SetShippingTotal(h.pricing.shipping(o), now); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

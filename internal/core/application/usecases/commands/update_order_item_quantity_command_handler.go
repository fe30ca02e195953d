package commands

import (
	"context"

	"fulfillment/internal/core/application/ledger"

	"go.uber.org/zap"
)

// UpdateOrderItemQuantityCommandHandler releases the holds of a line,
// changes its quantity and tax, then reserves the unshipped remainder again.
// A shortage rolls everything back, so the old holds survive.
type UpdateOrderItemQuantityCommandHandler struct {
	uowFactory UoWFactory
	pricing    Pricing
	log        *zap.Logger
	now        Clock
}

func NewUpdateOrderItemQuantityCommandHandler(
	uowFactory UoWFactory,
	pricing Pricing,
	log *zap.Logger,
) UpdateOrderItemQuantityCommandHandler {
	return UpdateOrderItemQuantityCommandHandler{
		uowFactory: uowFactory,
		pricing:    pricing,
		log:        log,
		now:        utcNow,
	}
}

func (h *UpdateOrderItemQuantityCommandHandler) Handle(ctx context.Context, cmd UpdateOrderItemQuantityCommand) error {
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

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	item, err := o.Item(cmd.ItemID())
	if err != nil {
		return err
	}

	now := h.now()
	if _, err = o.UpdateItemQuantity(item.ID(), cmd.Quantity(), h.pricing.taxFor(item, cmd.Quantity()), now); err != nil {
		return err
	}

	l := ledger.New(uow.StockRepository(), h.log).WithClock(h.now)
	if _, err = l.ReleaseItem(ctx, o.ID(), item.ID()); err != nil {
		return err
	}
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

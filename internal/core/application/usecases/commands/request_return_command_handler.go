package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/returns"
)

// RequestReturnCommandHandler prices the returned quantities, opens the
// return and tags the order lines with it in one transaction.
type RequestReturnCommandHandler struct {
	uowFactory UoWFactory
	now        Clock
}

func NewRequestReturnCommandHandler(uowFactory UoWFactory) RequestReturnCommandHandler {
	return RequestReturnCommandHandler{
		uowFactory: uowFactory,
		now:        utcNow,
	}
}

func (h *RequestReturnCommandHandler) Handle(ctx context.Context, cmd RequestReturnCommand) error {
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

	items := make([]returns.Item, 0, len(cmd.Lines()))
	for _, line := range cmd.Lines() {
		orderItem, itemErr := o.Item(line.ItemID)
		if itemErr != nil {
			return itemErr
		}
		item, itemErr := returns.NewItem(orderItem, line.Quantity)
		if itemErr != nil {
			return itemErr
		}
		items = append(items, item)
	}

	now := h.now()
	r, err := returns.NewReturn(
		cmd.ReturnID(),
		kernel.NewReferenceNumber(kernel.ReturnNumberPrefix, now),
		o.ID(),
		cmd.Type(),
		cmd.Reason(),
		items,
		now,
	)
	if err != nil {
		return err
	}
	if err = o.AttachReturn(r.ID(), r.Lines(), now); err != nil {
		return err
	}

	if err = uow.ReturnRepository().Add(ctx, r); err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

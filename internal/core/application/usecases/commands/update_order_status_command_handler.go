package commands

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// UpdateOrderStatusCommandHandler applies operator driven status changes.
//
// Business rules:
//   - Cancelled goes through CancelOrderCommandHandler so stock is released
//     and the payment settled
//   - Processing needs a captured payment
//   - Shipped and Delivered follow the fulfillment status, they are normally
//     reached through shipments
type UpdateOrderStatusCommandHandler struct {
	uowFactory UoWFactory
	cancel     *CancelOrderCommandHandler
	now        Clock
}

func NewUpdateOrderStatusCommandHandler(
	uowFactory UoWFactory,
	cancel *CancelOrderCommandHandler,
) UpdateOrderStatusCommandHandler {
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		cancel:     cancel,
		now:        utcNow,
	}
}

func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if cmd.Target() == order.Cancelled {
		cancelCmd, err := NewCancelOrderCommand(cmd.OrderID(), cmd.Actor(), cmd.Message())
		if err != nil {
			return err
		}
		return h.cancel.Handle(ctx, cancelCmd)
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

	now := h.now()
	switch cmd.Target() {
	case order.Processing:
		if !o.PaymentStatus().IsCaptured() {
			return errs.NewIllegalTransitionErrorWithCause("order", o.Status(), cmd.Target(),
				errors.New("payment is not captured"))
		}
		err = o.UpdateStatus(cmd.Target(), cmd.Actor(), cmd.Message(), cmd.Visibility(), now)
	case order.Shipped:
		if o.FulfillmentStatus() != order.FullyShipped {
			return errs.NewIllegalTransitionErrorWithCause("order", o.Status(), cmd.Target(),
				errors.New("items are left to ship"))
		}
		err = o.UpdateStatus(cmd.Target(), cmd.Actor(), cmd.Message(), cmd.Visibility(), now)
	case order.Delivered:
		err = o.MarkDelivered(cmd.Actor(), now)
	default:
		err = o.UpdateStatus(cmd.Target(), cmd.Actor(), cmd.Message(), cmd.Visibility(), now)
	}
	if err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

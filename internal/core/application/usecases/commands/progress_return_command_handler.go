package commands

import (
	"context"
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// ProgressReturnCommandHandler applies one manual return step. Rejecting a
// return puts its order lines back to the status they had before.
type ProgressReturnCommandHandler struct {
	uowFactory UoWFactory
	now        Clock
}

func NewProgressReturnCommandHandler(uowFactory UoWFactory) ProgressReturnCommandHandler {
	return ProgressReturnCommandHandler{
		uowFactory: uowFactory,
		now:        utcNow,
	}
}

func (h *ProgressReturnCommandHandler) Handle(ctx context.Context, cmd ProgressReturnCommand) error {
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

	r, err := uow.ReturnRepository().GetForUpdate(ctx, cmd.ReturnID())
	if err != nil {
		return err
	}

	now := h.now()
	switch cmd.Step() {
	case ApproveReturn:
		err = r.Approve(now)
	case ReceiveReturn:
		err = r.Receive(now)
	case InspectReturn:
		err = r.Inspect(cmd.RestockingFee(), cmd.ReturnShippingCost(), now)
	case RejectReturn:
		if err = r.Reject(cmd.Reason(), now); err != nil {
			return err
		}
		o, orderErr := uow.OrderRepository().GetForUpdate(ctx, r.OrderID())
		if orderErr != nil {
			return orderErr
		}
		o.DetachReturn(r.ID(), r.Lines(), now)
		err = uow.OrderRepository().Update(ctx, o)
	case UnknownReturnStep:
		err = errs.NewValueIsInvalidErrorWithCause("step", fmt.Errorf("%s is not a return step", cmd.Step()))
	}
	if err != nil {
		return err
	}

	if err = uow.ReturnRepository().Update(ctx, r); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

package commands

import (
	"context"

	"fulfillment/internal/core/ports"

	"github.com/shopspring/decimal"
)

// ApplyDiscountCommandHandler evaluates a discount code against the locked
// order and stores the result. The order clamps the discount so the grand
// total stays non-negative.
type ApplyDiscountCommandHandler struct {
	uowFactory UoWFactory
	discounts  ports.DiscountEvaluator
	now        Clock
}

func NewApplyDiscountCommandHandler(uowFactory UoWFactory, discounts ports.DiscountEvaluator) ApplyDiscountCommandHandler {
	return ApplyDiscountCommandHandler{
		uowFactory: uowFactory,
		discounts:  discounts,
		now:        utcNow,
	}
}

func (h *ApplyDiscountCommandHandler) Handle(ctx context.Context, cmd ApplyDiscountCommand) error {
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

	var amount decimal.Decimal
	if cmd.Amount() != nil {
		amount = *cmd.Amount()
	} else if amount, err = h.discounts.Evaluate(ctx, o, cmd.Code()); err != nil {
		return err
	}
	if err = o.ApplyDiscount(amount, h.now()); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

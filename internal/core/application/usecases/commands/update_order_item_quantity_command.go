package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrUpdateOrderItemQuantityCommandIsNotConstructed = errors.New(
		"UpdateOrderItemQuantityCommand must be created via NewUpdateOrderItemQuantityCommand constructor",
	)
)

// UpdateOrderItemQuantityCommand changes the quantity of one order line.
type UpdateOrderItemQuantityCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	itemID   kernel.UUID
	quantity int

	guard guard.ConstructorGuard
}

func NewUpdateOrderItemQuantityCommand(
	orderID kernel.UUID,
	itemID kernel.UUID,
	quantity int,
) (UpdateOrderItemQuantityCommand, error) {
	if err := errors.Join(orderID.Validate(), itemID.Validate()); err != nil {
		return UpdateOrderItemQuantityCommand{}, err
	}
	if quantity <= 0 {
		return UpdateOrderItemQuantityCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}

	return UpdateOrderItemQuantityCommand{
		orderID:  orderID,
		itemID:   itemID,
		quantity: quantity,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateOrderItemQuantityCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderItemQuantityCommandIsNotConstructed)
}

func (c UpdateOrderItemQuantityCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c UpdateOrderItemQuantityCommand) ItemID() kernel.UUID {
	return c.itemID
}

func (c UpdateOrderItemQuantityCommand) Quantity() int {
	return c.quantity
}

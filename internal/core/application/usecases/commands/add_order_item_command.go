package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrAddOrderItemCommandIsNotConstructed = errors.New(
		"AddOrderItemCommand must be created via NewAddOrderItemCommand constructor",
	)
)

// AddOrderItemCommand adds a line to a pending or processing order.
type AddOrderItemCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	line    OrderLine

	guard guard.ConstructorGuard
}

func NewAddOrderItemCommand(orderID kernel.UUID, line OrderLine) (AddOrderItemCommand, error) {
	if err := errors.Join(orderID.Validate(), line.validate()); err != nil {
		return AddOrderItemCommand{}, err
	}

	return AddOrderItemCommand{
		orderID: orderID,
		line:    line,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c AddOrderItemCommand) Validate() error {
	return c.guard.Validate(ErrAddOrderItemCommandIsNotConstructed)
}

func (c AddOrderItemCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AddOrderItemCommand) Line() OrderLine {
	return c.line
}

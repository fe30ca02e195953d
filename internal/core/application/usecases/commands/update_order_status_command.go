package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrUpdateOrderStatusCommandIsNotConstructed = errors.New(
		"UpdateOrderStatusCommand must be created via NewUpdateOrderStatusCommand constructor",
	)
)

// UpdateOrderStatusCommand moves an order to another status on behalf of an
// operator.
type UpdateOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	target     order.Status
	actor      string
	message    string
	visibility order.Visibility

	guard guard.ConstructorGuard
}

func NewUpdateOrderStatusCommand(
	orderID kernel.UUID,
	target order.Status,
	actor string,
	message string,
	visibility order.Visibility,
) (UpdateOrderStatusCommand, error) {
	if visibility == order.UnknownVisibility {
		visibility = order.VisibleToCustomer
	}
	if err := errors.Join(orderID.Validate(), target.Validate(), visibility.Validate()); err != nil {
		return UpdateOrderStatusCommand{}, err
	}
	if strings.TrimSpace(actor) == "" {
		actor = order.SystemActor
	}

	return UpdateOrderStatusCommand{
		orderID:    orderID,
		target:     target,
		actor:      actor,
		message:    message,
		visibility: visibility,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusCommandIsNotConstructed)
}

func (c UpdateOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c UpdateOrderStatusCommand) Target() order.Status {
	return c.target
}

func (c UpdateOrderStatusCommand) Actor() string {
	return c.actor
}

func (c UpdateOrderStatusCommand) Message() string {
	return c.message
}

func (c UpdateOrderStatusCommand) Visibility() order.Visibility {
	return c.visibility
}

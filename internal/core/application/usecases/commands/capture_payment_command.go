package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCapturePaymentCommandIsNotConstructed = errors.New(
		"CapturePaymentCommand must be created via NewCapturePaymentCommand constructor",
	)
)

// CapturePaymentCommand captures the authorized payment of an order, which
// moves the order to processing.
type CapturePaymentCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actor   string

	guard guard.ConstructorGuard
}

func NewCapturePaymentCommand(orderID kernel.UUID, actor string) (CapturePaymentCommand, error) {
	if err := orderID.Validate(); err != nil {
		return CapturePaymentCommand{}, err
	}
	if strings.TrimSpace(actor) == "" {
		actor = order.SystemActor
	}

	return CapturePaymentCommand{
		orderID: orderID,
		actor:   actor,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c CapturePaymentCommand) Validate() error {
	return c.guard.Validate(ErrCapturePaymentCommandIsNotConstructed)
}

func (c CapturePaymentCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CapturePaymentCommand) Actor() string {
	return c.actor
}

package commands

import (
	"errors"
	"slices"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
)

// CreateOrderCommand represents a checkout: the lines to sell, where to ship
// them and how the customer pays.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	cmd, err := NewCreateOrderCommand(orderID, []OrderLine{{
//	    ItemID: kernel.NewUUID(), ProductID: productID, Quantity: 2,
//	}}, order.Addresses{ShippingAddressRef: "addr-1"}, "pm_card_visa", "", "")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID          kernel.UUID
	lines            []OrderLine
	addresses        order.Addresses
	paymentMethodRef string
	currency         string
	discountCode     string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a checkout command. currency may be empty to
// use the service default; discountCode may be empty.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	lines []OrderLine,
	addresses order.Addresses,
	paymentMethodRef string,
	currency string,
	discountCode string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		addresses:    addresses,
		discountCode: strings.TrimSpace(discountCode),
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setLines(lines),
		cmd.setPaymentMethodRef(paymentMethodRef),
		cmd.setCurrency(currency),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) Lines() []OrderLine {
	return slices.Clone(c.lines)
}

func (c CreateOrderCommand) Addresses() order.Addresses {
	return c.addresses
}

func (c CreateOrderCommand) PaymentMethodRef() string {
	return c.paymentMethodRef
}

// Currency is empty when the default currency applies.
func (c CreateOrderCommand) Currency() string {
	return c.currency
}

func (c CreateOrderCommand) DiscountCode() string {
	return c.discountCode
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	lineErrs := make([]error, 0, len(lines))
	for _, line := range lines {
		lineErrs = append(lineErrs, line.validate())
	}
	if err := errors.Join(lineErrs...); err != nil {
		return err
	}
	c.lines = slices.Clone(lines)
	return nil
}

func (c *CreateOrderCommand) setPaymentMethodRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return errs.NewValueIsRequiredError("paymentMethodRef")
	}
	c.paymentMethodRef = ref
	return nil
}

func (c *CreateOrderCommand) setCurrency(currency string) error {
	if currency == "" {
		return nil
	}
	if err := kernel.ValidateCurrency(currency); err != nil {
		return err
	}
	c.currency = currency
	return nil
}

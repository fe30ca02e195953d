package commands

import (
	"errors"
	"fmt"
	"slices"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/returns"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrRequestReturnCommandIsNotConstructed = errors.New(
		"RequestReturnCommand must be created via NewRequestReturnCommand constructor",
	)
)

// ReturnLine is a quantity of one order line sent back.
type ReturnLine struct {
	ItemID   kernel.UUID
	Quantity int
}

// RequestReturnCommand opens a return (RMA) for shipped or delivered lines.
type RequestReturnCommand struct { //nolint:recvcheck //using for validation
	returnID kernel.UUID
	orderID  kernel.UUID
	typ      returns.Type
	reason   string
	lines    []ReturnLine

	guard guard.ConstructorGuard
}

func NewRequestReturnCommand(
	returnID kernel.UUID,
	orderID kernel.UUID,
	typ returns.Type,
	reason string,
	lines []ReturnLine,
) (RequestReturnCommand, error) {
	lineErrs := []error{returnID.Validate(), orderID.Validate(), typ.Validate()}
	if len(lines) == 0 {
		lineErrs = append(lineErrs, errs.NewValueIsRequiredError("items"))
	}
	for _, line := range lines {
		lineErrs = append(lineErrs, line.ItemID.Validate())
		if line.Quantity <= 0 {
			lineErrs = append(lineErrs, errs.NewValueIsInvalidErrorWithCause(
				"quantity", fmt.Errorf("%d is not greater than 0", line.Quantity)))
		}
	}
	if err := errors.Join(lineErrs...); err != nil {
		return RequestReturnCommand{}, err
	}

	return RequestReturnCommand{
		returnID: returnID,
		orderID:  orderID,
		typ:      typ,
		reason:   reason,
		lines:    slices.Clone(lines),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c RequestReturnCommand) Validate() error {
	return c.guard.Validate(ErrRequestReturnCommandIsNotConstructed)
}

func (c RequestReturnCommand) ReturnID() kernel.UUID {
	return c.returnID
}

func (c RequestReturnCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c RequestReturnCommand) Type() returns.Type {
	return c.typ
}

func (c RequestReturnCommand) Reason() string {
	return c.reason
}

func (c RequestReturnCommand) Lines() []ReturnLine {
	return slices.Clone(c.lines)
}

package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrProgressReturnCommandIsNotConstructed = errors.New(
		"ProgressReturnCommand must be created via one of the New*ReturnCommand constructors",
	)
)

// ReturnStep is one manual step of the return workflow.
type ReturnStep int

const (
	UnknownReturnStep ReturnStep = iota
	ApproveReturn
	ReceiveReturn
	InspectReturn
	RejectReturn
)

func (s ReturnStep) String() string {
	switch s {
	case ApproveReturn:
		return "approve"
	case ReceiveReturn:
		return "receive"
	case InspectReturn:
		return "inspect"
	case RejectReturn:
		return "reject"
	case UnknownReturnStep:
	}
	return "unknown"
}

// ProgressReturnCommand moves a return one step: approve, receive, inspect
// or reject.
type ProgressReturnCommand struct { //nolint:recvcheck //using for validation
	returnID           kernel.UUID
	step               ReturnStep
	restockingFee      decimal.Decimal
	returnShippingCost decimal.Decimal
	reason             string

	guard guard.ConstructorGuard
}

func NewApproveReturnCommand(returnID kernel.UUID) (ProgressReturnCommand, error) {
	return newProgressReturnCommand(returnID, ApproveReturn)
}

func NewReceiveReturnCommand(returnID kernel.UUID) (ProgressReturnCommand, error) {
	return newProgressReturnCommand(returnID, ReceiveReturn)
}

// NewInspectReturnCommand records the fees kept from the refund.
func NewInspectReturnCommand(
	returnID kernel.UUID,
	restockingFee decimal.Decimal,
	returnShippingCost decimal.Decimal,
) (ProgressReturnCommand, error) {
	cmd, err := newProgressReturnCommand(returnID, InspectReturn)
	if err != nil {
		return ProgressReturnCommand{}, err
	}
	if err = errors.Join(
		kernel.ValidateAmount("restockingFee", restockingFee),
		kernel.ValidateAmount("returnShippingCost", returnShippingCost),
	); err != nil {
		return ProgressReturnCommand{}, err
	}
	cmd.restockingFee = restockingFee
	cmd.returnShippingCost = returnShippingCost
	return cmd, nil
}

func NewRejectReturnCommand(returnID kernel.UUID, reason string) (ProgressReturnCommand, error) {
	cmd, err := newProgressReturnCommand(returnID, RejectReturn)
	if err != nil {
		return ProgressReturnCommand{}, err
	}
	cmd.reason = reason
	return cmd, nil
}

func newProgressReturnCommand(returnID kernel.UUID, step ReturnStep) (ProgressReturnCommand, error) {
	if err := returnID.Validate(); err != nil {
		return ProgressReturnCommand{}, err
	}
	return ProgressReturnCommand{
		returnID:           returnID,
		step:               step,
		restockingFee:      decimal.Zero,
		returnShippingCost: decimal.Zero,
		guard:              guard.NewConstructorGuard(),
	}, nil
}

func (c ProgressReturnCommand) Validate() error {
	return c.guard.Validate(ErrProgressReturnCommandIsNotConstructed)
}

func (c ProgressReturnCommand) ReturnID() kernel.UUID {
	return c.returnID
}

func (c ProgressReturnCommand) Step() ReturnStep {
	return c.step
}

func (c ProgressReturnCommand) RestockingFee() decimal.Decimal {
	return c.restockingFee
}

func (c ProgressReturnCommand) ReturnShippingCost() decimal.Decimal {
	return c.returnShippingCost
}

func (c ProgressReturnCommand) Reason() string {
	return c.reason
}

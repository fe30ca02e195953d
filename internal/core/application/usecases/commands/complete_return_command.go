package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrCompleteReturnCommandIsNotConstructed = errors.New(
		"CompleteReturnCommand must be created via NewCompleteReturnCommand constructor",
	)
)

// CompleteReturnCommand restocks and refunds an inspected return.
type CompleteReturnCommand struct { //nolint:recvcheck //using for validation
	returnID       kernel.UUID
	refundOverride *decimal.Decimal
	actor          string

	guard guard.ConstructorGuard
}

// NewCompleteReturnCommand builds the command. refundOverride replaces the
// computed refund when set.
func NewCompleteReturnCommand(
	returnID kernel.UUID,
	refundOverride *decimal.Decimal,
	actor string,
) (CompleteReturnCommand, error) {
	if err := returnID.Validate(); err != nil {
		return CompleteReturnCommand{}, err
	}
	if refundOverride != nil {
		if err := kernel.ValidateAmount("refundOverride", *refundOverride); err != nil {
			return CompleteReturnCommand{}, err
		}
	}
	if strings.TrimSpace(actor) == "" {
		actor = order.SystemActor
	}

	return CompleteReturnCommand{
		returnID:       returnID,
		refundOverride: refundOverride,
		actor:          actor,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c CompleteReturnCommand) Validate() error {
	return c.guard.Validate(ErrCompleteReturnCommandIsNotConstructed)
}

func (c CompleteReturnCommand) ReturnID() kernel.UUID {
	return c.returnID
}

func (c CompleteReturnCommand) RefundOverride() *decimal.Decimal {
	return c.refundOverride
}

func (c CompleteReturnCommand) Actor() string {
	return c.actor
}

package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrApplyDiscountCommandIsNotConstructed = errors.New(
		"ApplyDiscountCommand must be created via NewApplyDiscountCommand constructor",
	)
)

// ApplyDiscountCommand sets the order level discount, either from a discount
// code or as a fixed amount.
type ApplyDiscountCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	code    string
	amount  *decimal.Decimal

	guard guard.ConstructorGuard
}

// NewApplyDiscountCommand expects exactly one of code and amount.
func NewApplyDiscountCommand(orderID kernel.UUID, code string, amount *decimal.Decimal) (ApplyDiscountCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ApplyDiscountCommand{}, err
	}
	code = strings.TrimSpace(code)
	if (code == "") == (amount == nil) {
		return ApplyDiscountCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"discount", errors.New("either a code or an amount is required"))
	}
	if amount != nil {
		if err := kernel.ValidateAmount("amount", *amount); err != nil {
			return ApplyDiscountCommand{}, err
		}
	}

	return ApplyDiscountCommand{
		orderID: orderID,
		code:    code,
		amount:  amount,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ApplyDiscountCommand) Validate() error {
	return c.guard.Validate(ErrApplyDiscountCommandIsNotConstructed)
}

func (c ApplyDiscountCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ApplyDiscountCommand) Code() string {
	return c.code
}

func (c ApplyDiscountCommand) Amount() *decimal.Decimal {
	return c.amount
}

package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrAdjustStockCommandIsNotConstructed = errors.New(
		"AdjustStockCommand must be created via NewAdjustStockCommand constructor",
	)
)

// AdjustStockCommand corrects the stock of a location by a signed delta, for
// example after a count or when goods are damaged.
type AdjustStockCommand struct { //nolint:recvcheck //using for validation
	location ledger.Location
	delta    int
	reason   string
	dispose  bool

	guard guard.ConstructorGuard
}

// NewAdjustStockCommand builds the command. dispose records a negative delta
// as a disposal.
func NewAdjustStockCommand(location ledger.Location, delta int, reason string, dispose bool) (AdjustStockCommand, error) {
	if err := validateLocation(location); err != nil {
		return AdjustStockCommand{}, err
	}
	if delta == 0 {
		return AdjustStockCommand{}, errs.NewValueIsInvalidErrorWithCause("delta", errors.New("must not be 0"))
	}
	if dispose && delta > 0 {
		return AdjustStockCommand{}, errs.NewValueIsInvalidErrorWithCause("delta", errors.New("a disposal removes stock"))
	}
	if strings.TrimSpace(reason) == "" {
		return AdjustStockCommand{}, errs.NewValueIsRequiredError("reason")
	}

	return AdjustStockCommand{
		location: location,
		delta:    delta,
		reason:   reason,
		dispose:  dispose,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c AdjustStockCommand) Validate() error {
	return c.guard.Validate(ErrAdjustStockCommandIsNotConstructed)
}

func (c AdjustStockCommand) Location() ledger.Location {
	return c.location
}

func (c AdjustStockCommand) Delta() int {
	return c.delta
}

func (c AdjustStockCommand) Reason() string {
	return c.reason
}

func (c AdjustStockCommand) Dispose() bool {
	return c.dispose
}

func validateLocation(loc ledger.Location) error {
	locErrs := []error{loc.ProductID.Validate(), loc.WarehouseID.Validate()}
	if loc.VariantID != nil {
		locErrs = append(locErrs, loc.VariantID.Validate())
	}
	return errors.Join(locErrs...)
}

func validatePositive(paramName string, qty int) error {
	if qty <= 0 {
		return errs.NewValueIsOutOfRangeError(paramName, qty, 1, "unbounded")
	}
	return nil
}


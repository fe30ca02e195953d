package inventory

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// MovementType classifies a stock movement. The sign of the movement quantity
// must agree with its type: inbound and return add stock, outbound and
// disposal remove it, transfer and adjustment go either way.
type MovementType int

const (
	UnknownMovementType MovementType = iota
	Inbound
	Outbound
	Transfer
	Return
	Adjustment
	Disposal
)

func getMovementTypeStrings() map[MovementType]string {
	return map[MovementType]string{
		UnknownMovementType: "unknown",
		Inbound:             "inbound",
		Outbound:            "outbound",
		Transfer:            "transfer",
		Return:              "return",
		Adjustment:          "adjustment",
		Disposal:            "disposal",
	}
}

func (t MovementType) String() string {
	if str, ok := getMovementTypeStrings()[t]; ok {
		return str
	}
	return "unknown"
}

func (t MovementType) Validate() error {
	if t <= UnknownMovementType || t > Disposal {
		return errs.NewValueIsInvalidErrorWithCause("movementType", fmt.Errorf("%d is not a valid movement type", t))
	}
	return nil
}

// ParseMovementType maps the wire name back to a MovementType.
func ParseMovementType(s string) (MovementType, error) {
	for t, str := range getMovementTypeStrings() {
		if t != UnknownMovementType && str == s {
			return t, nil
		}
	}
	return UnknownMovementType, errs.NewValueIsInvalidErrorWithCause(
		"movementType",
		fmt.Errorf("%q is not a valid movement type", s),
	)
}

// ValidateQuantity checks the signed quantity against the type.
func (t MovementType) ValidateQuantity(qty int) error {
	if qty == 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%s movement cannot be zero", t))
	}

	switch t {
	case Inbound, Return:
		if qty < 0 {
			return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%s movement must be positive", t))
		}
	case Outbound, Disposal:
		if qty > 0 {
			return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%s movement must be negative", t))
		}
	case Transfer, Adjustment:
	case UnknownMovementType:
		return t.Validate()
	}
	return nil
}

package returns

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status is the lifecycle state of a return.
//
//	Requested -> Approved -> Received -> Inspected -> Completed
//	Requested | Approved | Received | Inspected -> Rejected
type Status int

const (
	UnknownStatus Status = iota
	Requested
	Approved
	Received
	Inspected
	Completed
	Rejected
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		UnknownStatus: "unknown",
		Requested:     "requested",
		Approved:      "approved",
		Received:      "received",
		Inspected:     "inspected",
		Completed:     "completed",
		Rejected:      "rejected",
	}
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

func (s Status) Validate() error {
	if s <= UnknownStatus || s > Rejected {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid return status", s))
	}
	return nil
}

func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != UnknownStatus && str == s {
			return status, nil
		}
	}
	return UnknownStatus, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid return status", s))
}

func (s Status) IsTerminal() bool {
	return s == Completed || s == Rejected
}

func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() || s == UnknownStatus {
		return false
	}
	if target == Rejected {
		return true
	}
	return target == s+1
}

func (s Status) TransitionTo(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return UnknownStatus, err
	}
	if !s.CanTransitionTo(target) {
		return UnknownStatus, errs.NewIllegalTransitionError("return", s, target)
	}
	return target, nil
}

// Type decides what the customer gets back.
type Type int

const (
	UnknownType Type = iota
	Refund
	Exchange
	StoreCredit
	Warranty
)

func getTypeStrings() map[Type]string {
	return map[Type]string{
		UnknownType: "unknown",
		Refund:      "refund",
		Exchange:    "exchange",
		StoreCredit: "store_credit",
		Warranty:    "warranty",
	}
}

func (t Type) String() string {
	if str, ok := getTypeStrings()[t]; ok {
		return str
	}
	return "unknown"
}

func (t Type) Validate() error {
	if t <= UnknownType || t > Warranty {
		return errs.NewValueIsInvalidErrorWithCause("type", fmt.Errorf("%d is not a valid return type", t))
	}
	return nil
}

func ParseType(s string) (Type, error) {
	for typ, str := range getTypeStrings() {
		if typ != UnknownType && str == s {
			return typ, nil
		}
	}
	return UnknownType, errs.NewValueIsInvalidErrorWithCause("type", fmt.Errorf("%q is not a valid return type", s))
}

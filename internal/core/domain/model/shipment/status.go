package shipment

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status is the carrier facing state of a shipment.
//
//	Pending -> Processing -> Shipped -> InTransit -> OutForDelivery -> Delivered
//	any non-terminal status -> Failed | Returned
type Status int

const (
	Unknown Status = iota
	Pending
	Processing
	Shipped
	InTransit
	OutForDelivery
	Delivered
	Failed
	Returned
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "unknown",
		Pending:        "pending",
		Processing:     "processing",
		Shipped:        "shipped",
		InTransit:      "in_transit",
		OutForDelivery: "out_for_delivery",
		Delivered:      "delivered",
		Failed:         "failed",
		Returned:       "returned",
	}
}

func getForwardSteps() map[Status]Status {
	return map[Status]Status{
		Pending:        Processing,
		Processing:     Shipped,
		Shipped:        InTransit,
		InTransit:      OutForDelivery,
		OutForDelivery: Delivered,
	}
}

func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid shipment status", s))
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

func (s Status) Validate() error {
	if s <= Unknown || s > Returned {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid shipment status", s))
	}
	return nil
}

// IsTerminal reports delivered, failed and returned shipments.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed || s == Returned
}

func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() || s == Unknown {
		return false
	}
	if target == Failed || target == Returned {
		return true
	}
	next, ok := getForwardSteps()[s]
	return ok && next == target
}

func (s Status) TransitionTo(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return Unknown, err
	}
	if !s.CanTransitionTo(target) {
		return Unknown, errs.NewIllegalTransitionError("shipment", s, target)
	}
	return target, nil
}

package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	Pending ──> Processing ──> Shipped ──> Delivered ──> Completed
//	   │            │             │            │            ▲
//	   └──> Cancelled <───────────┘            │            │
//	                              └──> Returned <┘ ──> Refunded
//
// Adjacency:
//   - Pending    -> Processing, Cancelled
//   - Processing -> Shipped, Cancelled
//   - Shipped    -> Delivered, Returned
//   - Delivered  -> Returned, Completed
//   - Returned   -> Refunded, Completed
//   - Refunded   -> Completed
//   - Cancelled and Completed are terminal
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Pending is the state right after checkout: stock is reserved and the
	// payment is authorized but not captured.
	Pending

	// Processing orders have a captured payment and wait for dispatch.
	Processing

	// Shipped orders have every physical item dispatched.
	Shipped

	// Delivered orders have every shipment delivered.
	Delivered

	// Returned orders have at least one item in an open return.
	Returned

	// Refunded orders had money given back.
	Refunded

	// Completed is the final state of a fulfilled order.
	Completed

	// Cancelled orders released their stock. Terminal.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Processing: "processing",
		Shipped:    "shipped",
		Delivered:  "delivered",
		Returned:   "returned",
		Refunded:   "refunded",
		Completed:  "completed",
		Cancelled:  "cancelled",
	}
}

func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal and unknown statuses have no outgoing edges
	return map[Status][]Status{
		Pending:    {Processing, Cancelled},
		Processing: {Shipped, Cancelled},
		Shipped:    {Delivered, Returned},
		Delivered:  {Returned, Completed},
		Returned:   {Refunded, Completed},
		Refunded:   {Completed},
	}
}

// ParseStatus maps a wire name such as "delivered" to a Status.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks that the status is one of the defined lifecycle states.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no transition leaves the status.
func (s Status) IsTerminal() bool {
	return len(getTransitions()[s]) == 0
}

// CanTransitionTo reports whether target is a legal successor of s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range getTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo returns target when it is a legal successor of s.
//
// Returns:
//   - (target, nil) on a legal edge
//   - (Unknown, *errs.IllegalTransitionError) otherwise
//
// Example:
//
//	next, err := order.Pending.TransitionTo(order.Delivered)
//	// errors.Is(err, errs.ErrIllegalTransition) == true
func (s Status) TransitionTo(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return Unknown, err
	}
	if !s.CanTransitionTo(target) {
		return Unknown, errs.NewIllegalTransitionError("order", s, target)
	}
	return target, nil
}

// IsMutable reports whether items may still be added, removed or re-quantified.
func (s Status) IsMutable() bool {
	return s == Pending || s == Processing
}

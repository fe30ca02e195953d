package inventory

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// ErrInvalidMovementTransition narrows an illegal movement status change.
var ErrInvalidMovementTransition = errors.New("invalid movement transition")

// MovementStatus is the lifecycle state of a stock movement.
//
// State transitions:
//
//	Pending ──┬──> Completed
//	          └──> Cancelled
type MovementStatus int

const (
	UnknownMovementStatus MovementStatus = iota

	// Pending movements are announced but not yet applied to on-hand stock,
	// such as an inbound supplier delivery.
	Pending

	// Completed movements are applied and immutable.
	Completed

	// Cancelled movements were never applied.
	Cancelled
)

func getMovementStatusStrings() map[MovementStatus]string {
	return map[MovementStatus]string{
		UnknownMovementStatus: "unknown",
		Pending:               "pending",
		Completed:             "completed",
		Cancelled:             "cancelled",
	}
}

func (s MovementStatus) String() string {
	if str, ok := getMovementStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

func (s MovementStatus) Validate() error {
	if s < Pending || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// Complete moves a pending movement to Completed.
func (s MovementStatus) Complete() (MovementStatus, error) {
	if s != Pending {
		return UnknownMovementStatus, errs.NewIllegalTransitionErrorWithCause(
			"movement", s, Completed, ErrInvalidMovementTransition,
		)
	}
	return Completed, nil
}

// Cancel moves a pending movement to Cancelled.
func (s MovementStatus) Cancel() (MovementStatus, error) {
	if s != Pending {
		return UnknownMovementStatus, errs.NewIllegalTransitionErrorWithCause(
			"movement", s, Cancelled, ErrInvalidMovementTransition,
		)
	}
	return Cancelled, nil
}

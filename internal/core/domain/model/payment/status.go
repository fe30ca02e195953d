package payment

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status of a payment.
//
//	Pending -> Processing (authorized) -> Completed (captured) -> Refunded
//	Pending | Processing -> Failed | Cancelled
type Status int

const (
	UnknownStatus Status = iota
	Pending
	Processing
	Completed
	Failed
	Refunded
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Refunded:
		return "refunded"
	case Cancelled:
		return "cancelled"
	case UnknownStatus:
	}
	return "unknown"
}

func (s Status) Validate() error {
	if s <= UnknownStatus || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid payment status", s))
	}
	return nil
}

// Kind classifies a gateway call.
type Kind int

const (
	UnknownKind Kind = iota
	Authorize
	Capture
	Refund
	Void
)

func (k Kind) String() string {
	switch k {
	case Authorize:
		return "authorize"
	case Capture:
		return "capture"
	case Refund:
		return "refund"
	case Void:
		return "void"
	case UnknownKind:
	}
	return "unknown"
}

func (k Kind) Validate() error {
	if k <= UnknownKind || k > Void {
		return errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%d is not a valid transaction kind", k))
	}
	return nil
}

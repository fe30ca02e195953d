package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// PaymentStatus is the order level view of the money flow.
type PaymentStatus int

const (
	UnknownPaymentStatus PaymentStatus = iota
	PaymentPending
	PaymentAuthorized
	PaymentPaid
	PaymentPartiallyRefunded
	PaymentRefunded
	PaymentFailed
	PaymentVoided
)

func getPaymentStatusStrings() map[PaymentStatus]string {
	return map[PaymentStatus]string{
		UnknownPaymentStatus:     "unknown",
		PaymentPending:           "pending",
		PaymentAuthorized:        "authorized",
		PaymentPaid:              "paid",
		PaymentPartiallyRefunded: "partially_refunded",
		PaymentRefunded:          "refunded",
		PaymentFailed:            "failed",
		PaymentVoided:            "voided",
	}
}

func (s PaymentStatus) String() string {
	if str, ok := getPaymentStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

func (s PaymentStatus) Validate() error {
	if s <= UnknownPaymentStatus || s > PaymentVoided {
		return errs.NewValueIsInvalidErrorWithCause("paymentStatus", fmt.Errorf("%d is not a valid payment status", s))
	}
	return nil
}

// IsCaptured reports whether money has been taken from the customer.
func (s PaymentStatus) IsCaptured() bool {
	return s == PaymentPaid || s == PaymentPartiallyRefunded || s == PaymentRefunded
}

// FulfillmentStatus rolls up the progress of an order's shipments.
type FulfillmentStatus int

const (
	UnknownFulfillmentStatus FulfillmentStatus = iota
	Unfulfilled
	PartiallyShipped
	FullyShipped
	FullyDelivered
)

func (s FulfillmentStatus) String() string {
	switch s {
	case Unfulfilled:
		return "unfulfilled"
	case PartiallyShipped:
		return "partially_shipped"
	case FullyShipped:
		return "shipped"
	case FullyDelivered:
		return "delivered"
	case UnknownFulfillmentStatus:
	}
	return "unknown"
}

func (s FulfillmentStatus) Validate() error {
	if s <= UnknownFulfillmentStatus || s > FullyDelivered {
		return errs.NewValueIsInvalidErrorWithCause(
			"fulfillmentStatus",
			fmt.Errorf("%d is not a valid fulfillment status", s),
		)
	}
	return nil
}

package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// ItemStatus mirrors the fulfillment step of a single order item.
type ItemStatus int

const (
	UnknownItemStatus ItemStatus = iota
	ItemPending
	ItemProcessing
	ItemShipped
	ItemDelivered
	ItemCancelled
	ItemReturned
)

func getItemStatusStrings() map[ItemStatus]string {
	return map[ItemStatus]string{
		UnknownItemStatus: "unknown",
		ItemPending:       "pending",
		ItemProcessing:    "processing",
		ItemShipped:       "shipped",
		ItemDelivered:     "delivered",
		ItemCancelled:     "cancelled",
		ItemReturned:      "returned",
	}
}

func (s ItemStatus) String() string {
	if str, ok := getItemStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

func (s ItemStatus) Validate() error {
	if s <= UnknownItemStatus || s > ItemReturned {
		return errs.NewValueIsInvalidErrorWithCause("itemStatus", fmt.Errorf("%d is not a valid item status", s))
	}
	return nil
}

// IsReturnable reports whether the item left the warehouse.
func (s ItemStatus) IsReturnable() bool {
	return s == ItemShipped || s == ItemDelivered
}

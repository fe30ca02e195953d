// Package order holds the Order aggregate of the fulfillment service.
//
// The package includes:
//   - Order: the aggregate root owning items, monetary totals and the status log
//   - Item: one order line with its own status, shipped quantity and return tag
//   - Log: an append-only record of every status change
//   - Status, PaymentStatus, FulfillmentStatus, ItemStatus: the state enums
//
// Key business rules:
//   - grandTotal = subtotal + taxTotal + shippingTotal − discountTotal and is never negative
//   - status changes follow a fixed adjacency; anything else is an IllegalTransitionError
//   - items change only while the order is pending or processing
//   - an item joins at most one return at a time
//
// Stock is not touched here. Commands pair order changes with ledger calls in
// one unit of work.
package order

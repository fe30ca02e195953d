// Package inventory contains the stock ledger aggregates: the per
// (product, variant, warehouse) StockRecord, the append-only Movement log
// and the Reservation holds that make reserve calls idempotent.
//
// A StockRecord is only ever mutated by the ledger primitives in
// internal/core/application/ledger. Every change to on-hand stock is paired
// with a completed Movement, so the sum of completed movement quantities
// always equals onHand minus the record's initial quantity.
//
// Invariants kept by StockRecord:
//   - onHand >= 0 and reserved >= 0
//   - reserved <= onHand, so Available() is never negative
//
// Movement lifecycle:
//
//	Pending ──┬──> Completed
//	          └──> Cancelled
//
// Completed and Cancelled are terminal; any other edge fails with
// ErrInvalidMovementTransition.
package inventory

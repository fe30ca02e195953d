// Package services provides domain services whose rules span several
// aggregates of the fulfillment domain.
//
// The package includes:
//   - StockAllocator: greedy split of an order item across warehouses
//   - RefundCalculator: refund amount of a completed return
//
// Services are stateless and never touch persistence; callers load and
// lock the aggregates and persist the results.
package services

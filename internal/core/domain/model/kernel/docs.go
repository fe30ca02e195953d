// Package kernel provides the shared primitives of the fulfillment domain.
//
// The package includes:
//   - UUID: identifier value object used by every aggregate
//   - EntityRef: a typed {entityType, entityId} reference used where a record
//     may point at an order, shipment, return, supplier order or adjustment
//   - ReferenceNumber: human facing numbers such as ORD-20250101-7F3K2Q
//   - Money helpers built on shopspring/decimal
//
// All values are immutable and safe for concurrent use.
package kernel

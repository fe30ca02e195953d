// Package ports defines the contracts between the fulfillment core and its
// infrastructure: repositories bound to a unit of work and the external
// collaborators (payment gateway, catalog, event bus, currency cache).
package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
)

// StockRepository persists stock records, their movements and reservations.
//
// Every *ForUpdate method takes a row lock held until the unit of work ends.
// Callers that lock several records lock them in ascending id order.
type StockRepository interface {
	// Add inserts a new stock record.
	Add(ctx context.Context, rec *inventory.StockRecord) error

	// Update writes a record back. The write fails with errs.ErrVersionIsInvalid
	// when the stored version is not the one that was loaded.
	Update(ctx context.Context, rec *inventory.StockRecord) error

	// Get loads a record without locking it.
	Get(ctx context.Context, id kernel.UUID) (*inventory.StockRecord, error)

	GetForUpdate(ctx context.Context, id kernel.UUID) (*inventory.StockRecord, error)

	// Find loads the record of a (product, variant, warehouse) triple without
	// locking it. Returns errs.ErrObjectNotFound when there is none.
	Find(
		ctx context.Context,
		productID kernel.UUID,
		variantID *kernel.UUID,
		warehouseID kernel.UUID,
	) (*inventory.StockRecord, error)

	// FindForUpdate locks the record of a (product, variant, warehouse) triple.
	// Returns errs.ErrObjectNotFound when the triple has no record yet.
	FindForUpdate(
		ctx context.Context,
		productID kernel.UUID,
		variantID *kernel.UUID,
		warehouseID kernel.UUID,
	) (*inventory.StockRecord, error)

	// ListByProductForUpdate locks every record of a product variant across
	// warehouses, ordered by id.
	ListByProductForUpdate(
		ctx context.Context,
		productID kernel.UUID,
		variantID *kernel.UUID,
	) ([]*inventory.StockRecord, error)

	// AddMovement inserts a ledger entry.
	AddMovement(ctx context.Context, m *inventory.Movement) error

	// UpdateMovement persists the status of a movement that was pending.
	UpdateMovement(ctx context.Context, m *inventory.Movement) error

	GetMovementForUpdate(ctx context.Context, id kernel.UUID) (*inventory.Movement, error)

	// GetReservation loads a reservation by idempotency key.
	// Returns errs.ErrObjectNotFound when the key was never used.
	GetReservation(ctx context.Context, key string) (*inventory.Reservation, error)

	// SaveReservation inserts or updates a reservation by key.
	SaveReservation(ctx context.Context, r *inventory.Reservation) error

	// ListActiveReservations returns the active holds of an order, or of one
	// of its items when itemID is set.
	ListActiveReservations(ctx context.Context, orderID kernel.UUID, itemID *kernel.UUID) ([]*inventory.Reservation, error)
}

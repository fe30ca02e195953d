package ledger_test

import (
	"context"
	"slices"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// memoryRepository is an in-memory ports.StockRepository. Locks are no-ops.
type memoryRepository struct {
	records      map[kernel.UUID]*inventory.StockRecord
	movements    []*inventory.Movement
	reservations map[string]*inventory.Reservation
	updates      int
}

func newMemoryRepository(records ...*inventory.StockRecord) *memoryRepository {
	repo := &memoryRepository{
		records:      make(map[kernel.UUID]*inventory.StockRecord),
		reservations: make(map[string]*inventory.Reservation),
	}
	for _, rec := range records {
		repo.records[rec.ID()] = rec
	}
	return repo
}

func (r *memoryRepository) Add(_ context.Context, rec *inventory.StockRecord) error {
	r.records[rec.ID()] = rec
	return nil
}

func (r *memoryRepository) Update(_ context.Context, rec *inventory.StockRecord) error {
	if _, ok := r.records[rec.ID()]; !ok {
		return errs.NewObjectNotFoundError("stockRecord", rec.ID().String())
	}
	r.records[rec.ID()] = rec
	r.updates++
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id kernel.UUID) (*inventory.StockRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("stockRecord", id.String())
	}
	return rec, nil
}

func (r *memoryRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*inventory.StockRecord, error) {
	return r.Get(ctx, id)
}

func (r *memoryRepository) Find(
	_ context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
) (*inventory.StockRecord, error) {
	for _, rec := range r.records {
		if rec.ProductID().IsEqual(productID) && sameVariant(rec.VariantID(), variantID) &&
			rec.WarehouseID().IsEqual(warehouseID) {
			return rec, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("stockRecord", productID.String())
}

func (r *memoryRepository) FindForUpdate(
	ctx context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
) (*inventory.StockRecord, error) {
	return r.Find(ctx, productID, variantID, warehouseID)
}

func (r *memoryRepository) ListByProductForUpdate(
	_ context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
) ([]*inventory.StockRecord, error) {
	var records []*inventory.StockRecord
	for _, rec := range r.records {
		if rec.ProductID().IsEqual(productID) && sameVariant(rec.VariantID(), variantID) {
			records = append(records, rec)
		}
	}
	slices.SortFunc(records, func(a, b *inventory.StockRecord) int {
		if a.ID().Less(b.ID()) {
			return -1
		}
		return 1
	})
	return records, nil
}

func (r *memoryRepository) AddMovement(_ context.Context, m *inventory.Movement) error {
	r.movements = append(r.movements, m)
	return nil
}

func (r *memoryRepository) UpdateMovement(_ context.Context, m *inventory.Movement) error {
	for i, existing := range r.movements {
		if existing.ID().IsEqual(m.ID()) {
			r.movements[i] = m
			return nil
		}
	}
	return errs.NewObjectNotFoundError("movement", m.ID().String())
}

func (r *memoryRepository) GetMovementForUpdate(_ context.Context, id kernel.UUID) (*inventory.Movement, error) {
	for _, m := range r.movements {
		if m.ID().IsEqual(id) {
			return m, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("movement", id.String())
}

func (r *memoryRepository) GetReservation(_ context.Context, key string) (*inventory.Reservation, error) {
	reservation, ok := r.reservations[key]
	if !ok {
		return nil, errs.NewObjectNotFoundError("reservation", key)
	}
	return reservation, nil
}

func (r *memoryRepository) SaveReservation(_ context.Context, reservation *inventory.Reservation) error {
	r.reservations[reservation.Key()] = reservation
	return nil
}

func (r *memoryRepository) ListActiveReservations(
	_ context.Context,
	orderID kernel.UUID,
	itemID *kernel.UUID,
) ([]*inventory.Reservation, error) {
	var active []*inventory.Reservation
	for _, reservation := range r.reservations {
		if reservation.Status() != inventory.Active || !reservation.OrderID().IsEqual(orderID) {
			continue
		}
		if itemID != nil && !reservation.OrderItemID().IsEqual(*itemID) {
			continue
		}
		active = append(active, reservation)
	}
	return active, nil
}

// completedSum is the signed sum of completed movements of a record.
func (r *memoryRepository) completedSum(stockRecordID kernel.UUID) int {
	sum := 0
	for _, m := range r.movements {
		if m.StockRecordID().IsEqual(stockRecordID) && m.Status() == inventory.Completed {
			sum += m.Quantity()
		}
	}
	return sum
}

// heldOn sums the active reservations of a record.
func (r *memoryRepository) heldOn(stockRecordID kernel.UUID) int {
	held := 0
	for _, reservation := range r.reservations {
		if reservation.Status() == inventory.Active && reservation.StockRecordID().IsEqual(stockRecordID) {
			held += reservation.Quantity()
		}
	}
	return held
}

func sameVariant(a, b *kernel.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.IsEqual(*b)
}

package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrStockRecordIsNotConstructed is returned when a StockRecord was not
	// created through NewStockRecord or RestoreStockRecord.
	ErrStockRecordIsNotConstructed = errors.New("StockRecord must be created via NewStockRecord constructor")
)

// StockRecord tracks the physical and held quantity of one product variant in
// one warehouse.
//
// StockRecord follows these invariants:
//   - onHand and reserved are never negative
//   - reserved never exceeds onHand
//   - version grows by one on every mutation and is checked on update
//
// The record does not write movements itself; the ledger pairs each on-hand
// change with a Movement inside the same transaction.
type StockRecord struct {
	id          kernel.UUID
	productID   kernel.UUID
	variantID   *kernel.UUID
	warehouseID kernel.UUID

	onHand          int
	reserved        int
	initialQuantity int
	levels          Levels

	version int

	events kernel.EventRecorder

	isConstructed bool
}

// NewStockRecord creates the record for a (product, variant, warehouse) triple
// on its first stock event.
//
// Parameters:
//   - id: identifier of the record
//   - productID, variantID: the stocked item; variantID is optional
//   - warehouseID: the holding warehouse
//   - initialQuantity: on-hand quantity at creation, the base of the conservation check
//   - levels: replenishment thresholds
//
// Returns:
//   - *StockRecord with zero reserved quantity
//   - error when any identifier is invalid or initialQuantity is negative
//
// Example:
//
//	levels, _ := inventory.NewLevels(0, 0, 5)
//	rec, err := inventory.NewStockRecord(kernel.NewUUID(), productID, nil, warehouseID, 0, levels)
func NewStockRecord(
	id kernel.UUID,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
	initialQuantity int,
	levels Levels,
) (*StockRecord, error) {
	rec := &StockRecord{
		levels:        levels,
		version:       1,
		isConstructed: true,
	}

	if err := errors.Join(
		rec.setID(id),
		rec.setProduct(productID, variantID),
		rec.setWarehouseID(warehouseID),
		rec.setInitialQuantity(initialQuantity),
	); err != nil {
		return nil, err
	}

	return rec, nil
}

// RestoreStockRecord rebuilds a record from persistence and re-checks its invariants.
func RestoreStockRecord(
	id kernel.UUID,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
	onHand, reserved, initialQuantity int,
	levels Levels,
	version int,
) (*StockRecord, error) {
	rec, err := NewStockRecord(id, productID, variantID, warehouseID, initialQuantity, levels)
	if err != nil {
		return nil, err
	}

	if onHand < 0 {
		return nil, errs.NewValueIsOutOfRangeError("onHand", onHand, 0, "unbounded")
	}
	if reserved < 0 || reserved > onHand {
		return nil, errs.NewValueIsOutOfRangeError("reserved", reserved, 0, onHand)
	}
	if version < 1 {
		return nil, errs.NewVersionIsInvalidErrorWithCause("version")
	}

	rec.onHand = onHand
	rec.reserved = reserved
	rec.version = version
	return rec, nil
}

// Validate ensures the record was built by a constructor.
func (s *StockRecord) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrStockRecordIsNotConstructed
	}
	return nil
}

func (s *StockRecord) ID() kernel.UUID {
	return s.id
}

func (s *StockRecord) ProductID() kernel.UUID {
	return s.productID
}

func (s *StockRecord) VariantID() *kernel.UUID {
	return s.variantID
}

func (s *StockRecord) WarehouseID() kernel.UUID {
	return s.warehouseID
}

func (s *StockRecord) OnHand() int {
	return s.onHand
}

func (s *StockRecord) Reserved() int {
	return s.reserved
}

func (s *StockRecord) InitialQuantity() int {
	return s.initialQuantity
}

func (s *StockRecord) Levels() Levels {
	return s.levels
}

// Version is the optimistic concurrency counter of the record.
func (s *StockRecord) Version() int {
	return s.version
}

// Available is the quantity that can still be reserved or withdrawn.
func (s *StockRecord) Available() int {
	return s.onHand - s.reserved
}

// IsBelowReorderPoint reports whether available stock reached the reorder point.
// Records without a reorder point never report low stock.
func (s *StockRecord) IsBelowReorderPoint() bool {
	return s.levels.reorderPoint > 0 && s.Available() <= s.levels.reorderPoint
}

// Reserve places a hold of qty units.
//
// Returns:
//   - nil when available stock covers qty
//   - *errs.InsufficientStockError otherwise, leaving the record unchanged
func (s *StockRecord) Reserve(qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}
	if s.Available() < qty {
		return errs.NewInsufficientStockError(s.id.String(), qty, s.Available())
	}

	s.reserved += qty
	s.version++
	return nil
}

// Unreserve releases up to qty held units and returns how many were released.
// The reserved quantity is floored at zero.
func (s *StockRecord) Unreserve(qty int) (int, error) {
	if err := validateQuantity(qty); err != nil {
		return 0, err
	}

	released := min(qty, s.reserved)
	s.reserved -= released
	s.version++
	return released, nil
}

// DecrementOnHand removes qty physical units at dispatch. held is the part of
// qty covered by the dispatching line's own hold on this record: reserved
// drops by held and the rest must come from available stock, so holds of
// other orders are never taken.
//
// Returns:
//   - *errs.ReservationDesyncError when held is not backed by reserved stock
//   - *errs.InsufficientStockError when qty − held exceeds available
func (s *StockRecord) DecrementOnHand(qty, held int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}
	if held < 0 || held > qty {
		return errs.NewValueIsOutOfRangeError("held", held, 0, qty)
	}
	if held > s.reserved || held > s.onHand {
		return errs.NewReservationDesyncError(s.id.String(), held, s.onHand, s.reserved)
	}
	if qty-held > s.Available() {
		return errs.NewInsufficientStockError(s.id.String(), qty, held+s.Available())
	}

	s.reserved -= held
	s.onHand -= qty
	s.version++
	return nil
}

// Withdraw removes qty unheld units, as done by transfers, negative
// adjustments and disposals. Held units are never taken.
func (s *StockRecord) Withdraw(qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}
	if s.Available() < qty {
		return errs.NewInsufficientStockError(s.id.String(), qty, s.Available())
	}

	s.onHand -= qty
	s.version++
	return nil
}

// Receive adds qty physical units.
func (s *StockRecord) Receive(qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}

	s.onHand += qty
	s.version++
	return nil
}

// RecordLowStock notes that available stock just reached the reorder point.
func (s *StockRecord) RecordLowStock(now time.Time) {
	s.events.Record(kernel.NewEvent("stock.below_reorder_point", kernel.RefTo(kernel.EntityStockRecord, s.id),
		map[string]string{
			"productId":    s.productID.String(),
			"warehouseId":  s.warehouseID.String(),
			"available":    strconv.Itoa(s.Available()),
			"reorderPoint": strconv.Itoa(s.levels.reorderPoint),
		}, now))
}

// PullEvents hands the recorded domain events to the unit of work.
func (s *StockRecord) PullEvents() []kernel.Event {
	return s.events.PullEvents()
}

// ChangeLevels replaces the replenishment thresholds.
func (s *StockRecord) ChangeLevels(levels Levels) {
	s.levels = levels
	s.version++
}

func (s *StockRecord) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *StockRecord) setProduct(productID kernel.UUID, variantID *kernel.UUID) error {
	if err := productID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("productId", err)
	}
	if variantID != nil {
		if err := variantID.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("variantId", err)
		}
	}
	s.productID = productID
	s.variantID = variantID
	return nil
}

func (s *StockRecord) setWarehouseID(warehouseID kernel.UUID) error {
	if err := warehouseID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("warehouseId", err)
	}
	s.warehouseID = warehouseID
	return nil
}

func (s *StockRecord) setInitialQuantity(qty int) error {
	if qty < 0 {
		return errs.NewValueIsInvalidErrorWithCause("initialQuantity", fmt.Errorf("%d is negative", qty))
	}
	s.initialQuantity = qty
	s.onHand = qty
	return nil
}

func validateQuantity(qty int) error {
	if qty <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", qty))
	}
	return nil
}

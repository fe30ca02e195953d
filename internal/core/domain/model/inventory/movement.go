package inventory

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrMovementIsNotConstructed = errors.New("Movement must be created via NewMovement constructor")
)

// MovementDetails carries the optional attributes of a movement.
type MovementDetails struct {
	SourceWarehouseID *kernel.UUID
	DestWarehouseID   *kernel.UUID
	Batch             string
	UnitCost          *decimal.Decimal
	Note              string
}

// Movement is one append-only entry of the stock ledger. Quantity is signed:
// positive adds to on-hand stock, negative removes from it.
//
// Only pending movements may change, and only to Completed or Cancelled.
// Persistence inserts movements and updates the status of pending ones; a
// completed movement is never rewritten.
type Movement struct {
	id            kernel.UUID
	stockRecordID kernel.UUID
	quantity      int
	movementType  MovementType
	status        MovementStatus
	reference     kernel.EntityRef
	details       MovementDetails
	createdAt     time.Time
	completedAt   *time.Time

	isConstructed bool
}

// NewMovement records a change that is applied in the same transaction.
//
// Parameters:
//   - stockRecordID: the record the quantity applies to
//   - movementType: classification; must agree with the sign of quantity
//   - quantity: signed quantity
//   - reference: the order, shipment, return, supplier order or adjustment behind the change
//   - details: optional warehouses, batch, unit cost and note
//   - now: creation and completion time
//
// Example:
//
//	m, err := inventory.NewMovement(rec.ID(), inventory.Outbound, -2,
//	    kernel.RefTo(kernel.EntityShipment, shipmentID), inventory.MovementDetails{}, time.Now())
func NewMovement(
	stockRecordID kernel.UUID,
	movementType MovementType,
	quantity int,
	reference kernel.EntityRef,
	details MovementDetails,
	now time.Time,
) (*Movement, error) {
	m, err := newMovement(stockRecordID, movementType, quantity, reference, details, now)
	if err != nil {
		return nil, err
	}
	m.status = Completed
	completedAt := now
	m.completedAt = &completedAt
	return m, nil
}

// NewPendingMovement announces a change that is applied later through Complete.
func NewPendingMovement(
	stockRecordID kernel.UUID,
	movementType MovementType,
	quantity int,
	reference kernel.EntityRef,
	details MovementDetails,
	now time.Time,
) (*Movement, error) {
	m, err := newMovement(stockRecordID, movementType, quantity, reference, details, now)
	if err != nil {
		return nil, err
	}
	m.status = Pending
	return m, nil
}

// RestoreMovement rebuilds a movement from persistence.
func RestoreMovement(
	id kernel.UUID,
	stockRecordID kernel.UUID,
	movementType MovementType,
	quantity int,
	status MovementStatus,
	reference kernel.EntityRef,
	details MovementDetails,
	createdAt time.Time,
	completedAt *time.Time,
) (*Movement, error) {
	if err := errors.Join(id.Validate(), status.Validate()); err != nil {
		return nil, err
	}

	m, err := newMovement(stockRecordID, movementType, quantity, reference, details, createdAt)
	if err != nil {
		return nil, err
	}
	m.id = id
	m.status = status
	m.completedAt = completedAt
	return m, nil
}

func newMovement(
	stockRecordID kernel.UUID,
	movementType MovementType,
	quantity int,
	reference kernel.EntityRef,
	details MovementDetails,
	now time.Time,
) (*Movement, error) {
	if err := errors.Join(
		stockRecordID.Validate(),
		movementType.Validate(),
		movementType.ValidateQuantity(quantity),
		validateReference(reference),
		validateUnitCost(details.UnitCost),
	); err != nil {
		return nil, err
	}

	return &Movement{
		id:            kernel.NewUUID(),
		stockRecordID: stockRecordID,
		quantity:      quantity,
		movementType:  movementType,
		reference:     reference,
		details:       details,
		createdAt:     now,
		isConstructed: true,
	}, nil
}

func (m *Movement) Validate() error {
	if m == nil || !m.isConstructed {
		return ErrMovementIsNotConstructed
	}
	return nil
}

func (m *Movement) ID() kernel.UUID {
	return m.id
}

func (m *Movement) StockRecordID() kernel.UUID {
	return m.stockRecordID
}

// Quantity is the signed quantity of the movement.
func (m *Movement) Quantity() int {
	return m.quantity
}

func (m *Movement) Type() MovementType {
	return m.movementType
}

func (m *Movement) Status() MovementStatus {
	return m.status
}

func (m *Movement) Reference() kernel.EntityRef {
	return m.reference
}

func (m *Movement) Details() MovementDetails {
	return m.details
}

func (m *Movement) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Movement) CompletedAt() *time.Time {
	return m.completedAt
}

// Complete marks a pending movement as applied. The caller applies the
// quantity to the stock record in the same transaction.
func (m *Movement) Complete(now time.Time) error {
	next, err := m.status.Complete()
	if err != nil {
		return err
	}
	m.status = next
	m.completedAt = &now
	return nil
}

// Cancel discards a pending movement. CompletedAt stays empty.
func (m *Movement) Cancel() error {
	next, err := m.status.Cancel()
	if err != nil {
		return err
	}
	m.status = next
	return nil
}

func validateReference(ref kernel.EntityRef) error {
	if ref.IsZero() {
		return errs.NewValueIsRequiredError("reference")
	}
	return ref.Type().Validate()
}

func validateUnitCost(cost *decimal.Decimal) error {
	if cost == nil {
		return nil
	}
	return kernel.ValidateAmount("unitCost", *cost)
}

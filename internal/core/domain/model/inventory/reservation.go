package inventory

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	ErrReservationIsNotConstructed = errors.New("Reservation must be created via NewReservation constructor")
)

// ReservationStatus is the lifecycle state of a hold.
//
//	Active ──┬──> Consumed ──┐
//	         └──> Released ──┴──> Active (held again under the same key)
type ReservationStatus int

const (
	UnknownReservationStatus ReservationStatus = iota
	Active
	Released
	Consumed
)

func (s ReservationStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Released:
		return "released"
	case Consumed:
		return "consumed"
	case UnknownReservationStatus:
	}
	return "unknown"
}

func (s ReservationStatus) Validate() error {
	if s < Active || s > Consumed {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// ReservationKey is the idempotency key of a reserve call: one hold per
// order item per stock record.
func ReservationKey(orderID, orderItemID, stockRecordID kernel.UUID) string {
	return orderID.String() + ":" + orderItemID.String() + ":" + stockRecordID.String()
}

// Reservation is the persisted hold behind a reserve call. Replaying a
// reserve with the key and quantity of an active reservation does nothing.
type Reservation struct {
	key           string
	stockRecordID kernel.UUID
	orderID       kernel.UUID
	orderItemID   kernel.UUID
	quantity      int
	status        ReservationStatus
	updatedAt     time.Time

	isConstructed bool
}

func NewReservation(
	stockRecordID, orderID, orderItemID kernel.UUID,
	quantity int,
	now time.Time,
) (*Reservation, error) {
	if err := errors.Join(
		stockRecordID.Validate(),
		orderID.Validate(),
		orderItemID.Validate(),
		validateQuantity(quantity),
	); err != nil {
		return nil, err
	}

	return &Reservation{
		key:           ReservationKey(orderID, orderItemID, stockRecordID),
		stockRecordID: stockRecordID,
		orderID:       orderID,
		orderItemID:   orderItemID,
		quantity:      quantity,
		status:        Active,
		updatedAt:     now,
		isConstructed: true,
	}, nil
}

func RestoreReservation(
	stockRecordID, orderID, orderItemID kernel.UUID,
	quantity int,
	status ReservationStatus,
	updatedAt time.Time,
) (*Reservation, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, errs.NewValueIsOutOfRangeError("quantity", quantity, 0, "unbounded")
	}

	r := &Reservation{
		key:           ReservationKey(orderID, orderItemID, stockRecordID),
		stockRecordID: stockRecordID,
		orderID:       orderID,
		orderItemID:   orderItemID,
		quantity:      quantity,
		status:        status,
		updatedAt:     updatedAt,
		isConstructed: true,
	}
	return r, errors.Join(stockRecordID.Validate(), orderID.Validate(), orderItemID.Validate())
}

func (r *Reservation) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrReservationIsNotConstructed
	}
	return nil
}

func (r *Reservation) Key() string {
	return r.key
}

func (r *Reservation) StockRecordID() kernel.UUID {
	return r.stockRecordID
}

func (r *Reservation) OrderID() kernel.UUID {
	return r.orderID
}

func (r *Reservation) OrderItemID() kernel.UUID {
	return r.orderItemID
}

// Quantity is the quantity still held.
func (r *Reservation) Quantity() int {
	return r.quantity
}

func (r *Reservation) Status() ReservationStatus {
	return r.status
}

func (r *Reservation) UpdatedAt() time.Time {
	return r.updatedAt
}

// IsReplayOf reports whether a reserve of qty under this key repeats the
// call that placed the current hold.
func (r *Reservation) IsReplayOf(qty int) bool {
	return r.status == Active && r.quantity == qty
}

// Release ends an active hold and returns the quantity to give back.
func (r *Reservation) Release(now time.Time) (int, error) {
	if r.status != Active {
		return 0, errs.NewIllegalTransitionError("reservation", r.status, Released)
	}
	released := r.quantity
	r.quantity = 0
	r.status = Released
	r.updatedAt = now
	return released, nil
}

// Reduce gives back up to qty units of an active hold and returns how many
// were given back. The hold is released once nothing is left.
func (r *Reservation) Reduce(qty int, now time.Time) (int, error) {
	if err := validateQuantity(qty); err != nil {
		return 0, err
	}
	if r.status != Active {
		return 0, errs.NewIllegalTransitionError("reservation", r.status, Released)
	}
	given := min(qty, r.quantity)
	r.quantity -= given
	if r.quantity == 0 {
		r.status = Released
	}
	r.updatedAt = now
	return given, nil
}

// Consume takes up to qty units of the hold at dispatch and returns how many
// were taken. The hold becomes Consumed once nothing is left.
func (r *Reservation) Consume(qty int, now time.Time) (int, error) {
	if err := validateQuantity(qty); err != nil {
		return 0, err
	}
	if r.status != Active {
		return 0, errs.NewIllegalTransitionError("reservation", r.status, Consumed)
	}
	taken := min(qty, r.quantity)
	r.quantity -= taken
	if r.quantity == 0 {
		r.status = Consumed
	}
	r.updatedAt = now
	return taken, nil
}

// Reactivate places a new hold under the key of a released or consumed
// reservation, for example when a line grows after part of it shipped.
func (r *Reservation) Reactivate(qty int, now time.Time) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}
	if r.status != Released && r.status != Consumed {
		return errs.NewIllegalTransitionError("reservation", r.status, Active)
	}
	r.quantity = qty
	r.status = Active
	r.updatedAt = now
	return nil
}

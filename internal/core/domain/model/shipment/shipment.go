package shipment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	ErrShipmentIsNotConstructed = errors.New("Shipment must be created via NewShipment constructor")
)

// Item is a quantity of one order line inside a shipment. StockRecordID is
// the record the quantity was decremented from.
type Item struct {
	OrderItemID   kernel.UUID
	StockRecordID *kernel.UUID
	Quantity      int
}

func (i Item) Validate() error {
	if i.Quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", i.Quantity))
	}
	return i.OrderItemID.Validate()
}

// TrackingEvent is one entry of the tracking history.
type TrackingEvent struct {
	Status      Status
	Carrier     string
	Location    string
	Description string
	OccurredAt  time.Time
}

// TrackingUpdate carries what the carrier reported with a status change.
type TrackingUpdate struct {
	Location    string
	Description string
}

type Shipment struct {
	id             kernel.UUID
	number         string
	orderID        kernel.UUID
	warehouseID    kernel.UUID
	status         Status
	carrier        string
	trackingNumber string

	items          []Item
	trackingEvents []TrackingEvent

	createdAt   time.Time
	shippedAt   *time.Time
	deliveredAt *time.Time

	events kernel.EventRecorder

	isConstructed bool
}

// NewShipment creates a pending shipment. Physical stock has already been
// decremented by the caller in the same unit of work.
//
// Example:
//
//	s, err := shipment.NewShipment(kernel.NewUUID(),
//	    kernel.NewReferenceNumber(kernel.ShipmentNumberPrefix, now),
//	    o.ID(), warehouseID, "ups", "1Z999", items, now)
func NewShipment(
	id kernel.UUID,
	number string,
	orderID kernel.UUID,
	warehouseID kernel.UUID,
	carrier string,
	trackingNumber string,
	items []Item,
	now time.Time,
) (*Shipment, error) {
	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		warehouseID.Validate(),
		validateNumber(number),
		validateItems(items),
	); err != nil {
		return nil, err
	}

	s := &Shipment{
		id:             id,
		number:         number,
		orderID:        orderID,
		warehouseID:    warehouseID,
		status:         Pending,
		carrier:        carrier,
		trackingNumber: trackingNumber,
		items:          items,
		createdAt:      now,
		isConstructed:  true,
	}
	s.trackingEvents = []TrackingEvent{{
		Status:      Pending,
		Carrier:     carrier,
		Description: "shipment created",
		OccurredAt:  now,
	}}
	return s, nil
}

// State is the persisted form of a shipment used by RestoreShipment.
type State struct {
	ID             kernel.UUID
	Number         string
	OrderID        kernel.UUID
	WarehouseID    kernel.UUID
	Status         Status
	Carrier        string
	TrackingNumber string
	Items          []Item
	TrackingEvents []TrackingEvent
	CreatedAt      time.Time
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
}

func RestoreShipment(state State) (*Shipment, error) {
	s, err := NewShipment(state.ID, state.Number, state.OrderID, state.WarehouseID,
		state.Carrier, state.TrackingNumber, state.Items, state.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err = state.Status.Validate(); err != nil {
		return nil, err
	}
	s.status = state.Status
	s.trackingEvents = state.TrackingEvents
	s.shippedAt = state.ShippedAt
	s.deliveredAt = state.DeliveredAt
	return s, nil
}

func (s *Shipment) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrShipmentIsNotConstructed
	}
	return nil
}

func (s *Shipment) ID() kernel.UUID {
	return s.id
}

func (s *Shipment) Number() string {
	return s.number
}

func (s *Shipment) OrderID() kernel.UUID {
	return s.orderID
}

func (s *Shipment) WarehouseID() kernel.UUID {
	return s.warehouseID
}

func (s *Shipment) Status() Status {
	return s.status
}

func (s *Shipment) Carrier() string {
	return s.carrier
}

func (s *Shipment) TrackingNumber() string {
	return s.trackingNumber
}

func (s *Shipment) Items() []Item {
	return s.items
}

func (s *Shipment) TrackingEvents() []TrackingEvent {
	return s.trackingEvents
}

func (s *Shipment) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Shipment) ShippedAt() *time.Time {
	return s.shippedAt
}

func (s *Shipment) DeliveredAt() *time.Time {
	return s.deliveredAt
}

func (s *Shipment) PullEvents() []kernel.Event {
	return s.events.PullEvents()
}

// UpdateStatus advances the shipment and appends a tracking event.
//
// Returns *errs.IllegalTransitionError, leaving the shipment unchanged, when
// target is not the next step and not a failure.
func (s *Shipment) UpdateStatus(target Status, update TrackingUpdate, now time.Time) error {
	next, err := s.status.TransitionTo(target)
	if err != nil {
		return err
	}

	previous := s.status
	s.status = next
	switch next {
	case Shipped:
		s.shippedAt = &now
	case Delivered:
		s.deliveredAt = &now
	case Unknown, Pending, Processing, InTransit, OutForDelivery, Failed, Returned:
	}

	s.trackingEvents = append(s.trackingEvents, TrackingEvent{
		Status:      next,
		Carrier:     s.carrier,
		Location:    update.Location,
		Description: update.Description,
		OccurredAt:  now,
	})
	s.events.Record(kernel.NewEvent("shipment.status_changed", kernel.RefTo(kernel.EntityShipment, s.id),
		map[string]string{
			"from":     previous.String(),
			"to":       next.String(),
			"orderId":  s.orderID.String(),
			"tracking": s.trackingNumber,
		}, now))
	return nil
}

// Quantities sums the shipped quantity per order item.
func (s *Shipment) Quantities() map[kernel.UUID]int {
	quantities := make(map[kernel.UUID]int, len(s.items))
	for _, item := range s.items {
		quantities[item.OrderItemID] += item.Quantity
	}
	return quantities
}

func validateNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return errs.NewValueIsRequiredError("shipmentNumber")
	}
	return nil
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	itemErrs := make([]error, 0, len(items))
	for _, item := range items {
		itemErrs = append(itemErrs, item.Validate())
	}
	return errors.Join(itemErrs...)
}

package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrUpdateShipmentStatusCommandIsNotConstructed = errors.New(
		"UpdateShipmentStatusCommand must be created via NewUpdateShipmentStatusCommand constructor",
	)
)

// UpdateShipmentStatusCommand records a carrier status update.
type UpdateShipmentStatusCommand struct { //nolint:recvcheck //using for validation
	shipmentID kernel.UUID
	target     shipment.Status
	update     shipment.TrackingUpdate
	actor      string

	guard guard.ConstructorGuard
}

func NewUpdateShipmentStatusCommand(
	shipmentID kernel.UUID,
	target shipment.Status,
	update shipment.TrackingUpdate,
	actor string,
) (UpdateShipmentStatusCommand, error) {
	if err := errors.Join(shipmentID.Validate(), target.Validate()); err != nil {
		return UpdateShipmentStatusCommand{}, err
	}
	if strings.TrimSpace(actor) == "" {
		actor = order.SystemActor
	}

	return UpdateShipmentStatusCommand{
		shipmentID: shipmentID,
		target:     target,
		update:     update,
		actor:      actor,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateShipmentStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateShipmentStatusCommandIsNotConstructed)
}

func (c UpdateShipmentStatusCommand) ShipmentID() kernel.UUID {
	return c.shipmentID
}

func (c UpdateShipmentStatusCommand) Target() shipment.Status {
	return c.target
}

func (c UpdateShipmentStatusCommand) Update() shipment.TrackingUpdate {
	return c.update
}

func (c UpdateShipmentStatusCommand) Actor() string {
	return c.actor
}

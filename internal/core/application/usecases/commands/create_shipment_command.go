package commands

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateShipmentCommandIsNotConstructed = errors.New(
		"CreateShipmentCommand must be created via NewCreateShipmentCommand constructor",
	)
)

// CreateShipmentCommand dispatches order lines from one warehouse.
//
// With no lines, every unshipped line holding stock at the warehouse ships
// in full.
type CreateShipmentCommand struct { //nolint:recvcheck //using for validation
	shipmentID  kernel.UUID
	orderID     kernel.UUID
	warehouseID kernel.UUID
	carrier     string
	lines       []order.ShipLine
	actor       string

	guard guard.ConstructorGuard
}

func NewCreateShipmentCommand(
	shipmentID kernel.UUID,
	orderID kernel.UUID,
	warehouseID kernel.UUID,
	carrier string,
	lines []order.ShipLine,
	actor string,
) (CreateShipmentCommand, error) {
	lineErrs := make([]error, 0, len(lines)+3)
	lineErrs = append(lineErrs, shipmentID.Validate(), orderID.Validate(), warehouseID.Validate())
	for _, line := range lines {
		lineErrs = append(lineErrs, line.ItemID.Validate())
		if line.Quantity <= 0 {
			lineErrs = append(lineErrs, errs.NewValueIsInvalidErrorWithCause(
				"quantity", fmt.Errorf("%d is not greater than 0", line.Quantity)))
		}
	}
	if err := errors.Join(lineErrs...); err != nil {
		return CreateShipmentCommand{}, err
	}
	if strings.TrimSpace(actor) == "" {
		actor = order.SystemActor
	}

	return CreateShipmentCommand{
		shipmentID:  shipmentID,
		orderID:     orderID,
		warehouseID: warehouseID,
		carrier:     strings.TrimSpace(carrier),
		lines:       slices.Clone(lines),
		actor:       actor,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c CreateShipmentCommand) Validate() error {
	return c.guard.Validate(ErrCreateShipmentCommandIsNotConstructed)
}

func (c CreateShipmentCommand) ShipmentID() kernel.UUID {
	return c.shipmentID
}

func (c CreateShipmentCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateShipmentCommand) WarehouseID() kernel.UUID {
	return c.warehouseID
}

// Carrier is empty when the shipment leaves without a carrier booking.
func (c CreateShipmentCommand) Carrier() string {
	return c.carrier
}

func (c CreateShipmentCommand) Lines() []order.ShipLine {
	return slices.Clone(c.lines)
}

func (c CreateShipmentCommand) Actor() string {
	return c.actor
}

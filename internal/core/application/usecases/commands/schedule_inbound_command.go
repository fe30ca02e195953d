package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrScheduleInboundCommandIsNotConstructed = errors.New(
		"ScheduleInboundCommand must be created via NewScheduleInboundCommand constructor",
	)
)

// ScheduleInboundCommand announces a supplier delivery. Stock is received
// later through ConfirmMovementCommand.
type ScheduleInboundCommand struct { //nolint:recvcheck //using for validation
	delivery Delivery

	guard guard.ConstructorGuard
}

func NewScheduleInboundCommand(delivery Delivery) (ScheduleInboundCommand, error) {
	if err := delivery.validate(); err != nil {
		return ScheduleInboundCommand{}, err
	}
	return ScheduleInboundCommand{delivery: delivery, guard: guard.NewConstructorGuard()}, nil
}

func (c ScheduleInboundCommand) Validate() error {
	return c.guard.Validate(ErrScheduleInboundCommandIsNotConstructed)
}

func (c ScheduleInboundCommand) Delivery() Delivery {
	return c.delivery
}

var (
	ErrMovementCommandIsNotConstructed = errors.New(
		"MovementCommand must be created via NewMovementCommand constructor",
	)
)

// MovementCommand names a pending movement to confirm or cancel.
type MovementCommand struct { //nolint:recvcheck //using for validation
	movementID kernel.UUID

	guard guard.ConstructorGuard
}

func NewMovementCommand(movementID kernel.UUID) (MovementCommand, error) {
	if err := movementID.Validate(); err != nil {
		return MovementCommand{}, err
	}
	return MovementCommand{movementID: movementID, guard: guard.NewConstructorGuard()}, nil
}

func (c MovementCommand) Validate() error {
	return c.guard.Validate(ErrMovementCommandIsNotConstructed)
}

func (c MovementCommand) MovementID() kernel.UUID {
	return c.movementID
}

package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrTransferStockCommandIsNotConstructed = errors.New(
		"TransferStockCommand must be created via NewTransferStockCommand constructor",
	)
)

// TransferStockCommand moves available units of a stock record to another
// warehouse.
type TransferStockCommand struct { //nolint:recvcheck //using for validation
	transferID          kernel.UUID
	sourceStockRecordID kernel.UUID
	destWarehouseID     kernel.UUID
	quantity            int
	note                string

	guard guard.ConstructorGuard
}

func NewTransferStockCommand(
	transferID kernel.UUID,
	sourceStockRecordID kernel.UUID,
	destWarehouseID kernel.UUID,
	quantity int,
	note string,
) (TransferStockCommand, error) {
	if err := errors.Join(
		transferID.Validate(),
		sourceStockRecordID.Validate(),
		destWarehouseID.Validate(),
		validatePositive("quantity", quantity),
	); err != nil {
		return TransferStockCommand{}, err
	}

	return TransferStockCommand{
		transferID:          transferID,
		sourceStockRecordID: sourceStockRecordID,
		destWarehouseID:     destWarehouseID,
		quantity:            quantity,
		note:                note,
		guard:               guard.NewConstructorGuard(),
	}, nil
}

func (c TransferStockCommand) Validate() error {
	return c.guard.Validate(ErrTransferStockCommandIsNotConstructed)
}

func (c TransferStockCommand) TransferID() kernel.UUID {
	return c.transferID
}

func (c TransferStockCommand) SourceStockRecordID() kernel.UUID {
	return c.sourceStockRecordID
}

func (c TransferStockCommand) DestWarehouseID() kernel.UUID {
	return c.destWarehouseID
}

func (c TransferStockCommand) Quantity() int {
	return c.quantity
}

func (c TransferStockCommand) Note() string {
	return c.note
}

package commands

import (
	"errors"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrRestockStockCommandIsNotConstructed = errors.New(
		"RestockStockCommand must be created via NewRestockStockCommand constructor",
	)
)

// Delivery describes goods received from, or announced by, a supplier.
type Delivery struct {
	Location        ledger.Location
	Quantity        int
	SupplierOrderID kernel.UUID
	Batch           string
	UnitCost        *decimal.Decimal
	Note            string
}

func (d Delivery) validate() error {
	errList := []error{validateLocation(d.Location), validatePositive("quantity", d.Quantity), d.SupplierOrderID.Validate()}
	if d.UnitCost != nil {
		errList = append(errList, kernel.ValidateAmount("unitCost", *d.UnitCost))
	}
	return errors.Join(errList...)
}

func (d Delivery) receipt() ledger.Receipt {
	return ledger.Receipt{
		Quantity:  d.Quantity,
		Type:      inventory.Inbound,
		Reference: kernel.RefTo(kernel.EntitySupplierOrder, d.SupplierOrderID),
		Batch:     d.Batch,
		UnitCost:  d.UnitCost,
		Note:      d.Note,
	}
}

// RestockStockCommand receives supplier goods straight onto the shelf.
type RestockStockCommand struct { //nolint:recvcheck //using for validation
	delivery Delivery

	guard guard.ConstructorGuard
}

func NewRestockStockCommand(delivery Delivery) (RestockStockCommand, error) {
	if err := delivery.validate(); err != nil {
		return RestockStockCommand{}, err
	}
	return RestockStockCommand{delivery: delivery, guard: guard.NewConstructorGuard()}, nil
}

func (c RestockStockCommand) Validate() error {
	return c.guard.Validate(ErrRestockStockCommandIsNotConstructed)
}

func (c RestockStockCommand) Delivery() Delivery {
	return c.delivery
}

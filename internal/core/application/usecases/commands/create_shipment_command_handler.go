package commands

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"go.uber.org/zap"
)

// CreateShipmentCommandHandler dispatches stock for an order.
//
// The tracking number is requested from the carrier before the transaction.
// Inside it the order is locked, every physical line is decremented at the
// warehouse (consuming the line's hold there), holds left at other
// warehouses by fully shipped lines are released, and the order and the new
// shipment are written. Any decrement failure rolls the whole dispatch back.
type CreateShipmentCommandHandler struct {
	uowFactory UoWFactory
	issuer     ports.TrackingNumberIssuer
	log        *zap.Logger
	now        Clock
}

// NewCreateShipmentCommandHandler accepts a nil issuer; shipments then carry
// no tracking number.
func NewCreateShipmentCommandHandler(
	uowFactory UoWFactory,
	issuer ports.TrackingNumberIssuer,
	log *zap.Logger,
) CreateShipmentCommandHandler {
	return CreateShipmentCommandHandler{
		uowFactory: uowFactory,
		issuer:     issuer,
		log:        log.With(zap.String("handler", "create_shipment")),
		now:        utcNow,
	}
}

func (h *CreateShipmentCommandHandler) Handle(ctx context.Context, cmd CreateShipmentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	number := kernel.NewReferenceNumber(kernel.ShipmentNumberPrefix, h.now())
	tracking := ""
	if cmd.Carrier() != "" && h.issuer != nil {
		var err error
		if tracking, err = h.issuer(ctx, cmd.Carrier(), number); err != nil {
			h.log.Warn("carrier did not issue a tracking number", zap.String("carrier", cmd.Carrier()),
				zap.String("shipmentNumber", number), zap.Error(err))
			return errs.NewShipmentFailedError(number, err)
		}
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if !o.CanShip() {
		return errs.NewIllegalTransitionError("order", o.Status(), order.Shipped)
	}

	stock := uow.StockRepository()
	lines := cmd.Lines()
	if len(lines) == 0 {
		if lines, err = defaultShipLines(ctx, stock, o, cmd.WarehouseID()); err != nil {
			return err
		}
	}

	l := ledger.New(stock, h.log).WithClock(h.now)
	items, err := h.decrement(ctx, l, stock, o, cmd, lines)
	if err != nil {
		return err
	}

	now := h.now()
	if err = o.ShipItems(lines, cmd.WarehouseID(), cmd.Actor(), now); err != nil {
		return err
	}
	for _, line := range lines {
		item, itemErr := o.Item(line.ItemID)
		if itemErr != nil {
			return itemErr
		}
		if !item.Product().IsDigital && item.RemainingToShip() == 0 {
			if _, err = l.ReleaseItem(ctx, o.ID(), item.ID()); err != nil {
				return err
			}
		}
	}

	s, err := shipment.NewShipment(cmd.ShipmentID(), number, o.ID(), cmd.WarehouseID(), cmd.Carrier(), tracking, items, now)
	if err != nil {
		return err
	}
	if err = uow.ShipmentRepository().Add(ctx, s); err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

func (h *CreateShipmentCommandHandler) decrement(
	ctx context.Context,
	l *ledger.Ledger,
	stock ports.StockRepository,
	o *order.Order,
	cmd CreateShipmentCommand,
	lines []order.ShipLine,
) ([]shipment.Item, error) {
	items := make([]shipment.Item, 0, len(lines))
	for _, line := range lines {
		item, err := o.Item(line.ItemID)
		if err != nil {
			return nil, err
		}
		if item.Product().IsDigital {
			items = append(items, shipment.Item{OrderItemID: item.ID(), Quantity: line.Quantity})
			continue
		}

		product := item.Product()
		rec, err := stock.Find(ctx, product.ProductID, product.VariantID, cmd.WarehouseID())
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, errs.NewInsufficientStockError(product.ProductID.String(), line.Quantity, 0)
		}
		if err != nil {
			return nil, err
		}

		if _, err = l.DecrementOnHand(ctx, ledger.Decrement{
			StockRecordID: rec.ID(),
			Quantity:      line.Quantity,
			Reference:     kernel.RefTo(kernel.EntityShipment, cmd.ShipmentID()),
			Hold:          &ledger.Hold{OrderID: o.ID(), OrderItemID: item.ID(), StockRecordID: rec.ID()},
		}); err != nil {
			return nil, err
		}
		recID := rec.ID()
		items = append(items, shipment.Item{OrderItemID: item.ID(), StockRecordID: &recID, Quantity: line.Quantity})
	}
	return items, nil
}

// defaultShipLines picks every unshipped line: physical lines ship what they
// hold at the warehouse, digital lines ship in full.
func defaultShipLines(
	ctx context.Context,
	stock ports.StockRepository,
	o *order.Order,
	warehouseID kernel.UUID,
) ([]order.ShipLine, error) {
	lines := make([]order.ShipLine, 0, len(o.Items()))
	for _, item := range o.Items() {
		if item.IsCancelled() || item.RemainingToShip() == 0 {
			continue
		}
		if item.Product().IsDigital {
			lines = append(lines, order.ShipLine{ItemID: item.ID(), Quantity: item.RemainingToShip()})
			continue
		}

		itemID := item.ID()
		holds, err := stock.ListActiveReservations(ctx, o.ID(), &itemID)
		if err != nil {
			return nil, err
		}
		held := 0
		for _, hold := range holds {
			rec, recErr := stock.Get(ctx, hold.StockRecordID())
			if recErr != nil {
				return nil, recErr
			}
			if rec.WarehouseID().IsEqual(warehouseID) {
				held += hold.Quantity()
			}
		}
		if held > 0 {
			lines = append(lines, order.ShipLine{ItemID: itemID, Quantity: min(held, item.RemainingToShip())})
		}
	}

	if len(lines) == 0 {
		return nil, errs.NewValueIsRequiredErrorWithCause("items",
			fmt.Errorf("nothing of order %s is held at warehouse %s", o.Number(), warehouseID))
	}
	return lines, nil
}

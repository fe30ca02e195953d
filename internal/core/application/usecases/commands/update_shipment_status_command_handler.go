package commands

import (
	"context"
	"time"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/shipment"

	"go.uber.org/zap"
)

// UpdateShipmentStatusCommandHandler advances a shipment.
//
// When the last live shipment of a fully shipped order is delivered, the
// order is delivered too. A delivery that lands after the order moved on only
// marks its lines delivered. A failed or returned shipment puts its units
// back on the shelf and, while the order can still ship, gives the lines
// back to the order and holds stock for them again.
type UpdateShipmentStatusCommandHandler struct {
	uowFactory UoWFactory
	log        *zap.Logger
	now        Clock
}

func NewUpdateShipmentStatusCommandHandler(uowFactory UoWFactory, log *zap.Logger) UpdateShipmentStatusCommandHandler {
	return UpdateShipmentStatusCommandHandler{
		uowFactory: uowFactory,
		log:        log.With(zap.String("handler", "update_shipment_status")),
		now:        utcNow,
	}
}

func (h *UpdateShipmentStatusCommandHandler) Handle(ctx context.Context, cmd UpdateShipmentStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	s, err := uow.ShipmentRepository().Get(ctx, cmd.ShipmentID())
	if err != nil {
		return err
	}
	// Shipments of an order are serialized by the order row lock; reload
	// once it is held.
	o, err := uow.OrderRepository().GetForUpdate(ctx, s.OrderID())
	if err != nil {
		return err
	}
	if s, err = uow.ShipmentRepository().Get(ctx, cmd.ShipmentID()); err != nil {
		return err
	}

	now := h.now()
	if err = s.UpdateStatus(cmd.Target(), cmd.Update(), now); err != nil {
		return err
	}
	if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
		return err
	}

	switch s.Status() {
	case shipment.Delivered:
		err = h.delivered(ctx, uow, o, s, cmd.Actor(), now)
	case shipment.Failed, shipment.Returned:
		err = h.undelivered(ctx, uow, o, s)
	default:
		return uow.Commit(ctx)
	}
	if err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

func (h *UpdateShipmentStatusCommandHandler) delivered(
	ctx context.Context,
	uow UoW,
	o *order.Order,
	s *shipment.Shipment,
	actor string,
	now time.Time,
) error {
	if o.Status() == order.Processing {
		return nil
	}
	if o.Status() != order.Shipped {
		itemIDs := make([]kernel.UUID, 0, len(s.Items()))
		for _, item := range s.Items() {
			itemIDs = append(itemIDs, item.OrderItemID)
		}
		return o.DeliverItems(itemIDs, now)
	}
	if o.FulfillmentStatus() != order.FullyShipped {
		return nil
	}
	delivered, err := h.allDelivered(ctx, uow, s)
	if err != nil || !delivered {
		return err
	}
	return o.MarkDelivered(actor, now)
}

// undelivered restocks the units of a shipment that will not reach the
// customer.
func (h *UpdateShipmentStatusCommandHandler) undelivered(
	ctx context.Context,
	uow UoW,
	o *order.Order,
	s *shipment.Shipment,
) error {
	l := ledger.New(uow.StockRepository(), h.log).WithClock(h.now)
	lines := make([]order.ShipLine, 0, len(s.Items()))
	for _, item := range s.Items() {
		lines = append(lines, order.ShipLine{ItemID: item.OrderItemID, Quantity: item.Quantity})
		if item.StockRecordID == nil {
			continue
		}
		if _, err := l.Restock(ctx, ledger.Receipt{
			StockRecordID: *item.StockRecordID,
			Quantity:      item.Quantity,
			Type:          inventory.Return,
			Reference:     kernel.RefTo(kernel.EntityShipment, s.ID()),
			Note:          s.Number() + " " + s.Status().String(),
		}); err != nil {
			return err
		}
	}

	if o.Status() != order.Processing && o.Status() != order.Shipped {
		h.log.Warn("undelivered shipment restocked for an order that cannot ship again",
			zap.String("shipmentNumber", s.Number()),
			zap.String("orderNumber", o.Number()),
			zap.Stringer("orderStatus", o.Status()))
		return nil
	}

	if err := o.UnshipItems(lines, h.now()); err != nil {
		return err
	}
	for _, line := range lines {
		item, err := o.Item(line.ItemID)
		if err != nil {
			return err
		}
		if _, err = l.ReleaseItem(ctx, o.ID(), item.ID()); err != nil {
			return err
		}
		if err = reserveItem(ctx, l, o.ID(), item); err != nil {
			return err
		}
	}
	return nil
}

// allDelivered ignores failed and returned shipments; their lines shipped
// again under another shipment.
func (h *UpdateShipmentStatusCommandHandler) allDelivered(ctx context.Context, uow UoW, current *shipment.Shipment) (bool, error) {
	shipments, err := uow.ShipmentRepository().ListByOrder(ctx, current.OrderID())
	if err != nil {
		return false, err
	}
	for _, s := range shipments {
		if s.ID().IsEqual(current.ID()) {
			continue
		}
		if s.Status() != shipment.Delivered && s.Status() != shipment.Failed && s.Status() != shipment.Returned {
			return false, nil
		}
	}
	return true, nil
}

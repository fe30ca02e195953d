package http

import (
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/shipment"

	"github.com/labstack/echo/v4"
)

// CreateShipment handles POST /api/v1/orders/:id/shipments. Without lines,
// everything still unshipped leaves the warehouse.
func (s *Server) CreateShipment(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req createShipmentRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	shipmentID, err := idOrNew("id", req.ID)
	if err != nil {
		return err
	}
	warehouseID, err := parseID("warehouseId", req.WarehouseID)
	if err != nil {
		return err
	}
	lines := make([]order.ShipLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		itemID, err := parseID("itemId", l.ItemID)
		if err != nil {
			return err
		}
		lines = append(lines, order.ShipLine{ItemID: itemID, Quantity: l.Quantity})
	}

	cmd, err := commands.NewCreateShipmentCommand(shipmentID, orderID, warehouseID, req.Carrier, lines, actor(c))
	if err != nil {
		return err
	}
	if err = s.h.CreateShipment.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return created(c, shipmentID)
}

func (s *Server) UpdateShipmentStatus(c echo.Context) error {
	shipmentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateShipmentStatusRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	target, err := shipment.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	cmd, err := commands.NewUpdateShipmentStatusCommand(
		shipmentID,
		target,
		shipment.TrackingUpdate{Location: req.Location, Description: req.Description},
		actor(c),
	)
	if err != nil {
		return err
	}
	if err = s.h.UpdateShipmentStatus.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

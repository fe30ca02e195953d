package http

import (
	"net/http"
	"strconv"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

func location(productID string, variantID *string, warehouseID string) (ledger.Location, error) {
	product, err := parseID("productId", productID)
	if err != nil {
		return ledger.Location{}, err
	}
	variant, err := parseOptionalID("variantId", variantID)
	if err != nil {
		return ledger.Location{}, err
	}
	warehouse, err := parseID("warehouseId", warehouseID)
	if err != nil {
		return ledger.Location{}, err
	}
	return ledger.Location{ProductID: product, VariantID: variant, WarehouseID: warehouse}, nil
}

func (r deliveryRequest) toDelivery() (commands.Delivery, error) {
	loc, err := location(r.ProductID, r.VariantID, r.WarehouseID)
	if err != nil {
		return commands.Delivery{}, err
	}
	supplierOrderID, err := parseID("supplierOrderId", r.SupplierOrderID)
	if err != nil {
		return commands.Delivery{}, err
	}
	return commands.Delivery{
		Location:        loc,
		Quantity:        r.Quantity,
		SupplierOrderID: supplierOrderID,
		Batch:           r.Batch,
		UnitCost:        r.UnitCost,
		Note:            r.Note,
	}, nil
}

// AdjustStock handles POST /api/v1/stock/adjustments.
func (s *Server) AdjustStock(c echo.Context) error {
	var req adjustStockRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	loc, err := location(req.ProductID, req.VariantID, req.WarehouseID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewAdjustStockCommand(loc, req.Delta, req.Reason, req.Dispose)
	if err != nil {
		return err
	}
	if err = s.h.AdjustStock.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) RestockStock(c echo.Context) error {
	var req deliveryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	delivery, err := req.toDelivery()
	if err != nil {
		return err
	}

	cmd, err := commands.NewRestockStockCommand(delivery)
	if err != nil {
		return err
	}
	if err = s.h.RestockStock.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) TransferStock(c echo.Context) error {
	var req transferStockRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	transferID, err := idOrNew("id", req.ID)
	if err != nil {
		return err
	}
	source, err := parseID("stockRecordId", req.StockRecordID)
	if err != nil {
		return err
	}
	dest, err := parseID("destWarehouseId", req.DestWarehouseID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewTransferStockCommand(transferID, source, dest, req.Quantity, req.Note)
	if err != nil {
		return err
	}
	if err = s.h.TransferStock.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return created(c, transferID)
}

// ScheduleInbound announces goods that are not on the shelf yet. The answer
// carries the pending movement to confirm or cancel later.
func (s *Server) ScheduleInbound(c echo.Context) error {
	var req deliveryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	delivery, err := req.toDelivery()
	if err != nil {
		return err
	}

	cmd, err := commands.NewScheduleInboundCommand(delivery)
	if err != nil {
		return err
	}
	movementID, err := s.h.ScheduleInbound.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return created(c, movementID)
}

func (s *Server) ConfirmMovement(c echo.Context) error {
	return s.settleMovement(c, s.h.ConfirmMovement)
}

func (s *Server) CancelMovement(c echo.Context) error {
	return s.settleMovement(c, s.h.CancelMovement)
}

func (s *Server) settleMovement(c echo.Context, handler CommandHandler[commands.MovementCommand]) error {
	movementID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cmd, err := commands.NewMovementCommand(movementID)
	if err != nil {
		return err
	}
	if err = handler.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetLowStock handles GET /api/v1/stock/low?warehouseId=.
func (s *Server) GetLowStock(c echo.Context) error {
	raw := c.QueryParam("warehouseId")
	warehouseID, err := parseOptionalID("warehouseId", &raw)
	if err != nil {
		return err
	}

	records, err := s.h.GetLowStock.Handle(c.Request().Context(), queries.NewGetLowStockQuery(warehouseID))
	if err != nil {
		return err
	}
	resp := make([]lowStockResponse, len(records))
	for i, r := range records {
		resp[i] = lowStockResponse{
			StockRecordID: r.StockRecordID.String(),
			ProductID:     r.ProductID.String(),
			VariantID:     optionalString(r.VariantID),
			WarehouseID:   r.WarehouseID.String(),
			OnHand:        r.OnHand,
			Reserved:      r.Reserved,
			Available:     r.Available,
			ReorderPoint:  r.ReorderPoint,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// ListMovements handles GET /api/v1/stock/:id/movements?type=&limit=.
func (s *Server) ListMovements(c echo.Context) error {
	stockRecordID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var movementType *inventory.MovementType
	if raw := c.QueryParam("type"); raw != "" {
		t, err := inventory.ParseMovementType(raw)
		if err != nil {
			return err
		}
		movementType = &t
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("limit", err)
		}
	}

	query, err := queries.NewListMovementsQuery(stockRecordID, movementType, limit)
	if err != nil {
		return err
	}
	movements, err := s.h.ListMovements.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	resp := make([]movementResponse, len(movements))
	for i, m := range movements {
		resp[i] = movementResponse{
			ID:            m.ID.String(),
			Type:          m.Type.String(),
			Status:        m.Status.String(),
			Quantity:      m.Quantity,
			ReferenceType: string(m.ReferenceType),
			ReferenceID:   m.ReferenceID,
			Batch:         m.Batch,
			UnitCost:      m.UnitCost,
			Note:          m.Note,
			CreatedAt:     m.CreatedAt,
			CompletedAt:   m.CompletedAt,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

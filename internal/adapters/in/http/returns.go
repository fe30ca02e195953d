package http

import (
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/returns"

	"github.com/labstack/echo/v4"
)

// RequestReturn handles POST /api/v1/orders/:id/returns.
func (s *Server) RequestReturn(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req requestReturnRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	returnID, err := idOrNew("id", req.ID)
	if err != nil {
		return err
	}
	typ, err := returns.ParseType(req.Type)
	if err != nil {
		return err
	}
	lines := make([]commands.ReturnLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		itemID, err := parseID("itemId", l.ItemID)
		if err != nil {
			return err
		}
		lines = append(lines, commands.ReturnLine{ItemID: itemID, Quantity: l.Quantity})
	}

	cmd, err := commands.NewRequestReturnCommand(returnID, orderID, typ, req.Reason, lines)
	if err != nil {
		return err
	}
	if err = s.h.RequestReturn.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return created(c, returnID)
}

func (s *Server) ApproveReturn(c echo.Context) error {
	return s.progressReturn(c, commands.NewApproveReturnCommand)
}

func (s *Server) ReceiveReturn(c echo.Context) error {
	return s.progressReturn(c, commands.NewReceiveReturnCommand)
}

func (s *Server) InspectReturn(c echo.Context) error {
	var req inspectReturnRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return s.progressReturn(c, func(id kernel.UUID) (commands.ProgressReturnCommand, error) {
		return commands.NewInspectReturnCommand(id, req.RestockingFee, req.ReturnShippingCost)
	})
}

func (s *Server) RejectReturn(c echo.Context) error {
	var req rejectReturnRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return s.progressReturn(c, func(id kernel.UUID) (commands.ProgressReturnCommand, error) {
		return commands.NewRejectReturnCommand(id, req.Reason)
	})
}

func (s *Server) progressReturn(
	c echo.Context,
	build func(kernel.UUID) (commands.ProgressReturnCommand, error),
) error {
	returnID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cmd, err := build(returnID)
	if err != nil {
		return err
	}
	if err = s.h.ProgressReturn.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CompleteReturn restocks the returned units and refunds the customer. A
// body is optional; refundAmount overrides the computed refund.
func (s *Server) CompleteReturn(c echo.Context) error {
	returnID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req completeReturnRequest
	if err = bind(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewCompleteReturnCommand(returnID, req.RefundAmount, actor(c))
	if err != nil {
		return err
	}
	if err = s.h.CompleteReturn.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

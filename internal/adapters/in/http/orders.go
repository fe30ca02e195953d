package http

import (
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	orderID, err := idOrNew("id", req.ID)
	if err != nil {
		return err
	}
	lines := make([]commands.OrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		line, err := l.toOrderLine()
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}

	cmd, err := commands.NewCreateOrderCommand(
		orderID,
		lines,
		order.Addresses{ShippingAddressRef: req.ShippingAddressRef, BillingAddressRef: req.BillingAddressRef},
		req.PaymentMethodRef,
		req.Currency,
		req.DiscountCode,
	)
	if err != nil {
		return err
	}
	if err = s.h.CreateOrder.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return created(c, orderID)
}

func (l orderLineRequest) toOrderLine() (commands.OrderLine, error) {
	itemID, err := idOrNew("itemId", l.ItemID)
	if err != nil {
		return commands.OrderLine{}, err
	}
	productID, err := parseID("productId", l.ProductID)
	if err != nil {
		return commands.OrderLine{}, err
	}
	variantID, err := parseOptionalID("variantId", l.VariantID)
	if err != nil {
		return commands.OrderLine{}, err
	}
	warehouseID, err := parseOptionalID("warehouseId", l.WarehouseID)
	if err != nil {
		return commands.OrderLine{}, err
	}
	return commands.OrderLine{
		ItemID:      itemID,
		ProductID:   productID,
		VariantID:   variantID,
		WarehouseID: warehouseID,
		Quantity:    l.Quantity,
	}, nil
}

// GetOrder handles GET /api/v1/orders/:id. With ?view=customer, log entries
// meant for staff are left out.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	query, err := queries.NewGetOrderQuery(orderID, c.QueryParam("view") == "customer")
	if err != nil {
		return err
	}

	view, err := s.h.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(view))
}

func (s *Server) UpdateOrderStatus(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateOrderStatusRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	visibility, err := order.ParseVisibility(req.Visibility)
	if err != nil {
		return err
	}

	cmd, err := commands.NewUpdateOrderStatusCommand(orderID, target, actor(c), req.Message, visibility)
	if err != nil {
		return err
	}
	if err = s.h.UpdateOrderStatus.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) CancelOrder(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req cancelOrderRequest
	if err = bind(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, actor(c), req.Reason)
	if err != nil {
		return err
	}
	if err = s.h.CancelOrder.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) CapturePayment(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	cmd, err := commands.NewCapturePaymentCommand(orderID, actor(c))
	if err != nil {
		return err
	}
	if err = s.h.CapturePayment.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) ApplyDiscount(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req applyDiscountRequest
	if err = bind(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewApplyDiscountCommand(orderID, req.Code, req.Amount)
	if err != nil {
		return err
	}
	if err = s.h.ApplyDiscount.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) AddOrderItem(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req orderLineRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	line, err := req.toOrderLine()
	if err != nil {
		return err
	}

	cmd, err := commands.NewAddOrderItemCommand(orderID, line)
	if err != nil {
		return err
	}
	if err = s.h.AddOrderItem.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return created(c, line.ItemID)
}

func (s *Server) UpdateOrderItemQuantity(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}
	var req updateItemQuantityRequest
	if err = bind(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewUpdateOrderItemQuantityCommand(orderID, itemID, req.Quantity)
	if err != nil {
		return err
	}
	if err = s.h.UpdateOrderItemQuantity.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

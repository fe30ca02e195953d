package http

import (
	"context"
	"net/http"
	"strings"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ActorHeader names the caller recorded in order logs and movements.
const ActorHeader = "X-Actor"

const defaultActor = "api"

// CommandHandler is satisfied by every command handler of the application layer.
type CommandHandler[C any] interface {
	Handle(ctx context.Context, cmd C) error
}

// QueryHandler is satisfied by query handlers and by commands that answer
// with a value.
type QueryHandler[Q any, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// Handlers bundles the use cases exposed over HTTP.
type Handlers struct {
	CreateOrder             CommandHandler[commands.CreateOrderCommand]
	UpdateOrderStatus       CommandHandler[commands.UpdateOrderStatusCommand]
	CancelOrder             CommandHandler[commands.CancelOrderCommand]
	CapturePayment          CommandHandler[commands.CapturePaymentCommand]
	ApplyDiscount           CommandHandler[commands.ApplyDiscountCommand]
	AddOrderItem            CommandHandler[commands.AddOrderItemCommand]
	UpdateOrderItemQuantity CommandHandler[commands.UpdateOrderItemQuantityCommand]

	CreateShipment       CommandHandler[commands.CreateShipmentCommand]
	UpdateShipmentStatus CommandHandler[commands.UpdateShipmentStatusCommand]

	RequestReturn  CommandHandler[commands.RequestReturnCommand]
	ProgressReturn CommandHandler[commands.ProgressReturnCommand]
	CompleteReturn CommandHandler[commands.CompleteReturnCommand]

	AdjustStock     CommandHandler[commands.AdjustStockCommand]
	RestockStock    CommandHandler[commands.RestockStockCommand]
	TransferStock   CommandHandler[commands.TransferStockCommand]
	ScheduleInbound QueryHandler[commands.ScheduleInboundCommand, kernel.UUID]
	ConfirmMovement CommandHandler[commands.MovementCommand]
	CancelMovement  CommandHandler[commands.MovementCommand]

	GetOrder      QueryHandler[queries.GetOrderQuery, *queries.GetOrderQueryResponse]
	GetLowStock   QueryHandler[queries.GetLowStockQuery, []queries.GetLowStockQueryResponse]
	ListMovements QueryHandler[queries.ListMovementsQuery, []queries.ListMovementsQueryResponse]
}

// Server translates HTTP requests into application commands and queries.
type Server struct {
	h   Handlers
	log *zap.Logger
}

func NewServer(handlers Handlers, log *zap.Logger) *Server {
	return &Server{
		h:   handlers,
		log: log.With(zap.String("component", "http")),
	}
}

// Register mounts the API, the health probe and the Prometheus endpoint.
func (s *Server) Register(e *echo.Echo) {
	e.HTTPErrorHandler = s.ErrorHandler
	e.Use(s.Metrics)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.PATCH("/orders/:id/status", s.UpdateOrderStatus)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/capture", s.CapturePayment)
	api.POST("/orders/:id/discount", s.ApplyDiscount)
	api.POST("/orders/:id/items", s.AddOrderItem)
	api.PATCH("/orders/:id/items/:itemId", s.UpdateOrderItemQuantity)
	api.POST("/orders/:id/shipments", s.CreateShipment)
	api.POST("/orders/:id/returns", s.RequestReturn)

	api.PATCH("/shipments/:id/status", s.UpdateShipmentStatus)

	api.POST("/returns/:id/approve", s.ApproveReturn)
	api.POST("/returns/:id/receive", s.ReceiveReturn)
	api.POST("/returns/:id/inspect", s.InspectReturn)
	api.POST("/returns/:id/reject", s.RejectReturn)
	api.POST("/returns/:id/complete", s.CompleteReturn)

	api.POST("/stock/adjustments", s.AdjustStock)
	api.POST("/stock/restocks", s.RestockStock)
	api.POST("/stock/transfers", s.TransferStock)
	api.POST("/stock/inbound", s.ScheduleInbound)
	api.POST("/stock/movements/:id/confirm", s.ConfirmMovement)
	api.POST("/stock/movements/:id/cancel", s.CancelMovement)
	api.GET("/stock/low", s.GetLowStock)
	api.GET("/stock/:id/movements", s.ListMovements)
}

func actor(c echo.Context) string {
	if a := strings.TrimSpace(c.Request().Header.Get(ActorHeader)); a != "" {
		return a
	}
	return defaultActor
}

func pathID(c echo.Context, name string) (kernel.UUID, error) {
	return parseID(name, c.Param(name))
}

func bind(c echo.Context, into any) error {
	if err := c.Bind(into); err != nil {
		return badRequest("malformed request body")
	}
	return nil
}

func created(c echo.Context, id kernel.UUID) error {
	return c.JSON(http.StatusCreated, createdResponse{ID: id.String()})
}

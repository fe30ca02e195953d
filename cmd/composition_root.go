package cmd

import (
	"context"
	"fmt"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/cache"
	"fulfillment/internal/adapters/out/carrier"
	"fulfillment/internal/adapters/out/paymentgw"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/catalogrepo"
	"fulfillment/internal/adapters/out/postgres/settingsrepo"
	"fulfillment/internal/adapters/out/pricing"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	log        *zap.Logger

	gateway   ports.PaymentGateway
	discounts ports.DiscountEvaluator
	currency  *cache.CurrencyCache
	issuer    ports.TrackingNumberIssuer
	pricing   commands.Pricing
}

// NewCompositionRoot wires the outbound adapters. publisher may be nil.
func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	redisClient redis.Cmdable,
	publisher ports.EventPublisher,
	log *zap.Logger,
) (*CompositionRoot, error) {
	discounts, err := pricing.ParseCodeTable(config.DiscountCodes)
	if err != nil {
		return nil, fmt.Errorf("discount codes: %w", err)
	}
	currency, err := cache.NewCurrencyCache(
		redisClient,
		settingsrepo.NewGormSettingsRepository(gormDB),
		config.DefaultCurrency,
		config.CurrencyCacheTTL,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("default currency: %w", err)
	}

	return &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB, publisher, log),
		log:        log,
		gateway: paymentgw.NewClient(paymentgw.Config{
			BaseURL:         config.PaymentGatewayURL,
			APIKey:          config.PaymentGatewayAPIKey,
			Timeout:         config.PaymentGatewayTimeout,
			MaxAttempts:     config.PaymentGatewayMaxAttempts,
			InitialInterval: config.PaymentGatewayBackoff,
		}, log),
		discounts: discounts,
		currency:  currency,
		issuer:    carrier.LocalIssuer(config.Carriers...),
		pricing: commands.Pricing{
			Catalog:  catalogrepo.NewGormCatalog(gormDB),
			Tax:      pricing.FlatRateTax(config.TaxRate, config.TaxExemptDigital),
			Shipping: pricing.FlatShipping(config.FlatShipping, config.FreeShippingOver),
		},
	}, nil
}

func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) stockUoW() commands.StockUoWFactory {
	return FuncStockUoWFactory(func() commands.StockUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.uow(), c.pricing, c.discounts, c.currency, c.gateway, c.log)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.uow(), c.gateway, c.log)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	cancel := c.CreateCancelOrderCommandHandler()
	return commands.NewUpdateOrderStatusCommandHandler(c.uow(), &cancel)
}

func (c *CompositionRoot) CreateCapturePaymentCommandHandler() commands.CapturePaymentCommandHandler {
	return commands.NewCapturePaymentCommandHandler(c.uow(), c.gateway, c.log)
}

func (c *CompositionRoot) CreateApplyDiscountCommandHandler() commands.ApplyDiscountCommandHandler {
	return commands.NewApplyDiscountCommandHandler(c.uow(), c.discounts)
}

func (c *CompositionRoot) CreateAddOrderItemCommandHandler() commands.AddOrderItemCommandHandler {
	return commands.NewAddOrderItemCommandHandler(c.uow(), c.pricing, c.log)
}

func (c *CompositionRoot) CreateUpdateOrderItemQuantityCommandHandler() commands.UpdateOrderItemQuantityCommandHandler {
	return commands.NewUpdateOrderItemQuantityCommandHandler(c.uow(), c.pricing, c.log)
}

func (c *CompositionRoot) CreateCreateShipmentCommandHandler() commands.CreateShipmentCommandHandler {
	return commands.NewCreateShipmentCommandHandler(c.uow(), c.issuer, c.log)
}

func (c *CompositionRoot) CreateUpdateShipmentStatusCommandHandler() commands.UpdateShipmentStatusCommandHandler {
	return commands.NewUpdateShipmentStatusCommandHandler(c.uow(), c.log)
}

func (c *CompositionRoot) CreateRequestReturnCommandHandler() commands.RequestReturnCommandHandler {
	return commands.NewRequestReturnCommandHandler(c.uow())
}

func (c *CompositionRoot) CreateProgressReturnCommandHandler() commands.ProgressReturnCommandHandler {
	return commands.NewProgressReturnCommandHandler(c.uow())
}

func (c *CompositionRoot) CreateCompleteReturnCommandHandler() commands.CompleteReturnCommandHandler {
	return commands.NewCompleteReturnCommandHandler(c.uow(), c.gateway, c.log)
}

func (c *CompositionRoot) CreateAdjustStockCommandHandler() commands.AdjustStockCommandHandler {
	return commands.NewAdjustStockCommandHandler(c.stockUoW(), c.log)
}

func (c *CompositionRoot) CreateRestockStockCommandHandler() commands.RestockStockCommandHandler {
	return commands.NewRestockStockCommandHandler(c.stockUoW(), c.log)
}

func (c *CompositionRoot) CreateTransferStockCommandHandler() commands.TransferStockCommandHandler {
	return commands.NewTransferStockCommandHandler(c.stockUoW(), c.log)
}

func (c *CompositionRoot) CreateScheduleInboundCommandHandler() commands.ScheduleInboundCommandHandler {
	return commands.NewScheduleInboundCommandHandler(c.stockUoW(), c.log)
}

func (c *CompositionRoot) CreateConfirmMovementCommandHandler() commands.ConfirmMovementCommandHandler {
	return commands.NewConfirmMovementCommandHandler(c.stockUoW(), c.log)
}

func (c *CompositionRoot) CreateCancelMovementCommandHandler() commands.CancelMovementCommandHandler {
	return commands.NewCancelMovementCommandHandler(c.stockUoW(), c.log)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetLowStockQueryHandler() queries.GetLowStockQueryHandler {
	return queries.NewGetLowStockQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListMovementsQueryHandler() queries.ListMovementsQueryHandler {
	return queries.NewListMovementsQueryHandler(c.gormDB)
}

// HTTPHandlers collects the use cases served by the HTTP adapter.
func (c *CompositionRoot) HTTPHandlers() httpin.Handlers {
	return httpin.Handlers{
		CreateOrder:             ptr(c.CreateCreateOrderCommandHandler()),
		UpdateOrderStatus:       ptr(c.CreateUpdateOrderStatusCommandHandler()),
		CancelOrder:             ptr(c.CreateCancelOrderCommandHandler()),
		CapturePayment:          ptr(c.CreateCapturePaymentCommandHandler()),
		ApplyDiscount:           ptr(c.CreateApplyDiscountCommandHandler()),
		AddOrderItem:            ptr(c.CreateAddOrderItemCommandHandler()),
		UpdateOrderItemQuantity: ptr(c.CreateUpdateOrderItemQuantityCommandHandler()),

		CreateShipment:       ptr(c.CreateCreateShipmentCommandHandler()),
		UpdateShipmentStatus: ptr(c.CreateUpdateShipmentStatusCommandHandler()),

		RequestReturn:  ptr(c.CreateRequestReturnCommandHandler()),
		ProgressReturn: ptr(c.CreateProgressReturnCommandHandler()),
		CompleteReturn: ptr(c.CreateCompleteReturnCommandHandler()),

		AdjustStock:     ptr(c.CreateAdjustStockCommandHandler()),
		RestockStock:    ptr(c.CreateRestockStockCommandHandler()),
		TransferStock:   ptr(c.CreateTransferStockCommandHandler()),
		ScheduleInbound: ptr(c.CreateScheduleInboundCommandHandler()),
		ConfirmMovement: ptr(c.CreateConfirmMovementCommandHandler()),
		CancelMovement:  ptr(c.CreateCancelMovementCommandHandler()),

		GetOrder:      c.CreateGetOrderQueryHandler(),
		GetLowStock:   c.CreateGetLowStockQueryHandler(),
		ListMovements: c.CreateListMovementsQueryHandler(),
	}
}

// Jobs builds the background jobs with their configured schedules.
func (c *CompositionRoot) Jobs() *jobs.JobManager {
	awaiting := func(ctx context.Context, limit int) ([]kernel.UUID, error) {
		list, err := c.uowFactory.Create().ReturnRepository().ListAwaitingCompletion(ctx, limit)
		if err != nil {
			return nil, err
		}
		ids := make([]kernel.UUID, len(list))
		for i, r := range list {
			ids[i] = r.ID()
		}
		return ids, nil
	}

	return jobs.NewJobManager(
		jobs.NewReturnRetryJob(awaiting, ptr(c.CreateCompleteReturnCommandHandler()),
			c.config.ReturnRetrySchedule, c.config.ReturnRetryBatch, c.log),
		jobs.NewLowStockJob(c.CreateGetLowStockQueryHandler(), c.config.LowStockSchedule, c.log),
	)
}

func ptr[T any](v T) *T {
	return &v
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncStockUoWFactory func() commands.StockUoW

func (f FuncStockUoWFactory) Create() commands.StockUoW {
	return f()
}

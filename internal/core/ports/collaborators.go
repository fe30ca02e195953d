package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"

	"github.com/shopspring/decimal"
)

// PaymentRequest is one call to the payment gateway.
type PaymentRequest struct {
	OrderID kernel.UUID
	// Reference is the gateway reference of the authorization or capture the
	// call acts on. Empty for Authorize.
	Reference      string
	Amount         decimal.Decimal
	Currency       string
	MethodRef      string
	IdempotencyKey string
}

// PaymentGateway moves money. A declined call is a GatewayResult with
// Success=false; an error means the gateway could not be reached.
type PaymentGateway interface {
	Authorize(ctx context.Context, req PaymentRequest) (payment.GatewayResult, error)
	Capture(ctx context.Context, req PaymentRequest) (payment.GatewayResult, error)
	Refund(ctx context.Context, req PaymentRequest) (payment.GatewayResult, error)
	Void(ctx context.Context, req PaymentRequest) (payment.GatewayResult, error)
}

// CatalogProduct is what the catalog knows about a sellable product.
type CatalogProduct struct {
	ProductID kernel.UUID
	VariantID *kernel.UUID
	SKU       string
	Price     decimal.Decimal
	IsDigital bool
	Active    bool
}

// Catalog resolves prices and product facts. Catalog CRUD lives elsewhere.
type Catalog interface {
	Product(ctx context.Context, productID kernel.UUID, variantID *kernel.UUID) (CatalogProduct, error)
}

// DiscountEvaluator turns a discount code into an order level amount.
type DiscountEvaluator interface {
	Evaluate(ctx context.Context, o *order.Order, code string) (decimal.Decimal, error)
}

// TaxCalculator returns the tax of one order line.
type TaxCalculator func(product CatalogProduct, quantity int, lineSubtotal decimal.Decimal) decimal.Decimal

// ShippingCalculator returns the shipping charge of an order.
type ShippingCalculator func(o *order.Order) decimal.Decimal

// TrackingNumberIssuer asks the carrier for a tracking number.
type TrackingNumberIssuer func(ctx context.Context, carrier, shipmentNumber string) (string, error)

// EventPublisher ships domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kernel.Event) error
}

// SettingsRepository stores service wide settings.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// CurrencyProvider returns the currency of new orders.
type CurrencyProvider interface {
	DefaultCurrency(ctx context.Context) (string, error)
}

package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/model/returns"
	"fulfillment/internal/core/domain/model/shipment"
)

// OrderRepository persists order aggregates with their items and logs.
type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the order and its items; new log entries are inserted,
	// existing ones are left untouched.
	Update(ctx context.Context, aggregate *order.Order) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate locks the order row for the rest of the unit of work.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)
}

// ShipmentRepository persists shipments with items and tracking events.
type ShipmentRepository interface {
	Add(ctx context.Context, aggregate *shipment.Shipment) error
	Update(ctx context.Context, aggregate *shipment.Shipment) error
	Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error)

	// ListByOrder returns every shipment of an order, oldest first.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*shipment.Shipment, error)
}

// ReturnRepository persists returns with their items.
type ReturnRepository interface {
	Add(ctx context.Context, aggregate *returns.Return) error
	Update(ctx context.Context, aggregate *returns.Return) error
	Get(ctx context.Context, id kernel.UUID) (*returns.Return, error)
	GetForUpdate(ctx context.Context, id kernel.UUID) (*returns.Return, error)

	// ListAwaitingCompletion returns inspected returns whose completion
	// started but did not finish.
	ListAwaitingCompletion(ctx context.Context, limit int) ([]*returns.Return, error)
}

// PaymentRepository persists payments with their transactions.
type PaymentRepository interface {
	Add(ctx context.Context, aggregate *payment.Payment) error
	Update(ctx context.Context, aggregate *payment.Payment) error

	// GetByOrder returns the payment of an order.
	GetByOrder(ctx context.Context, orderID kernel.UUID) (*payment.Payment, error)
}

package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery reads one order with its lines, status history and payment.
// A customer view hides log entries that are visible to admins only.
//
// Example:
//
//	query, err := NewGetOrderQuery(orderID, true)
//	if err != nil {
//	    return err
//	}
//	view, err := handler.Handle(ctx, query)
type GetOrderQuery struct {
	orderID      kernel.UUID
	customerView bool

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID, customerView bool) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, errs.NewValueIsRequiredErrorWithCause("orderID", err)
	}
	return GetOrderQuery{
		orderID:      orderID,
		customerView: customerView,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

func (q GetOrderQuery) CustomerView() bool {
	return q.customerView
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// GetOrderQueryResponse is the read model of an order.
type GetOrderQueryResponse struct {
	ID                kernel.UUID
	Number            string
	Status            order.Status
	PaymentStatus     order.PaymentStatus
	FulfillmentStatus order.FulfillmentStatus
	Currency          string
	Subtotal          decimal.Decimal
	TaxTotal          decimal.Decimal
	ShippingTotal     decimal.Decimal
	DiscountTotal     decimal.Decimal
	GrandTotal        decimal.Decimal
	ExchangeForID     *kernel.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Items             []OrderItemView
	Logs              []OrderLogView
	Payment           *PaymentView
}

type OrderItemView struct {
	ID               kernel.UUID
	ProductID        kernel.UUID
	VariantID        *kernel.UUID
	SKU              string
	IsDigital        bool
	Quantity         int
	ShippedQuantity  int
	ReturnedQuantity int
	UnitPrice        decimal.Decimal
	TaxAmount        decimal.Decimal
	DiscountAmount   decimal.Decimal
	Status           order.ItemStatus
}

type OrderLogView struct {
	Previous   order.Status
	Next       order.Status
	Actor      string
	Message    string
	Visibility order.Visibility
	CreatedAt  time.Time
}

type PaymentView struct {
	ID               kernel.UUID
	Status           payment.Status
	Amount           decimal.Decimal
	AuthorizedAmount decimal.Decimal
	CapturedAmount   decimal.Decimal
	RefundedAmount   decimal.Decimal
}

package commands

import (
	"context"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/ports"

	"go.uber.org/zap"
)

// CreateOrderCommandHandler places an order.
//
// Checkout runs in three steps:
//  1. one transaction prices the lines, reserves every physical line and
//     stores the order with a pending payment; any shortage rolls it all back
//  2. the payment gateway authorizes the grand total, outside any transaction
//  3. a second transaction records the answer; a decline cancels the order
//     and releases its holds
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, pricing, discounts, currency, gateway, logger)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    if errors.Is(err, errs.ErrInsufficientStock) {
//	        // nothing was stored
//	    }
//	    return err
//	}
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	pricing    Pricing
	discounts  ports.DiscountEvaluator
	currency   ports.CurrencyProvider
	gateway    ports.PaymentGateway
	log        *zap.Logger
	now        Clock
}

func NewCreateOrderCommandHandler(
	uowFactory UoWFactory,
	pricing Pricing,
	discounts ports.DiscountEvaluator,
	currency ports.CurrencyProvider,
	gateway ports.PaymentGateway,
	log *zap.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		pricing:    pricing,
		discounts:  discounts,
		currency:   currency,
		gateway:    gateway,
		log:        log.With(zap.String("handler", "create_order")),
		now:        utcNow,
	}
}

// Handle places the order and authorizes its payment.
//
// Returns:
//   - *errs.InsufficientStockError when a line cannot be covered; nothing is stored
//   - *errs.PaymentFailedError when the authorization fails; the order is
//     stored as cancelled with a failed payment
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	o, err := h.buildOrder(ctx, cmd)
	if err != nil {
		return err
	}
	p, err := payment.NewPayment(kernel.NewUUID(), o.ID(), o.GrandTotal(), o.Currency(), o.PaymentMethodRef(), h.now())
	if err != nil {
		return err
	}

	if err = h.place(ctx, o, p); err != nil {
		return err
	}
	return h.authorize(ctx, o.ID())
}

func (h *CreateOrderCommandHandler) buildOrder(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	currency := cmd.Currency()
	if currency == "" {
		var err error
		if currency, err = h.currency.DefaultCurrency(ctx); err != nil {
			return nil, err
		}
	}

	now := h.now()
	o, err := order.NewOrder(
		cmd.OrderID(),
		kernel.NewReferenceNumber(kernel.OrderNumberPrefix, now),
		currency,
		cmd.Addresses(),
		cmd.PaymentMethodRef(),
		now,
	)
	if err != nil {
		return nil, err
	}

	for _, line := range cmd.Lines() {
		item, itemErr := h.pricing.newItem(ctx, line)
		if itemErr != nil {
			return nil, itemErr
		}
		if err = o.AddItem(item, now); err != nil {
			return nil, err
		}
	}
	if err = o.SetShippingTotal(h.pricing.shipping(o), now); err != nil {
		return nil, err
	}

	if cmd.DiscountCode() != "" {
		amount, discountErr := h.discounts.Evaluate(ctx, o, cmd.DiscountCode())
		if discountErr != nil {
			return nil, discountErr
		}
		if err = o.ApplyDiscount(amount, now); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (h *CreateOrderCommandHandler) place(ctx context.Context, o *order.Order, p *payment.Payment) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	l := ledger.New(uow.StockRepository(), h.log).WithClock(h.now)
	if err := reserveInventory(ctx, l, o); err != nil {
		return err
	}
	if err := uow.OrderRepository().Add(ctx, o); err != nil {
		return err
	}
	if err := uow.PaymentRepository().Add(ctx, p); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func (h *CreateOrderCommandHandler) authorize(ctx context.Context, orderID kernel.UUID) error {
	p, err := h.uowFactory.Create().PaymentRepository().GetByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	key := payment.IdempotencyKey(payment.Authorize, kernel.RefTo(kernel.EntityOrder, orderID))
	result := payment.GatewayResult{Success: true}
	var callErr error
	if p.Amount().IsPositive() {
		result, callErr = callGateway(ctx, h.gateway.Authorize, ports.PaymentRequest{
			OrderID:        orderID,
			Amount:         p.Amount(),
			Currency:       p.Currency(),
			MethodRef:      p.MethodRef(),
			IdempotencyKey: key,
		})
	}

	return h.recordAuthorization(ctx, orderID, result, key, callErr)
}

func (h *CreateOrderCommandHandler) recordAuthorization(
	ctx context.Context,
	orderID kernel.UUID,
	result payment.GatewayResult,
	key string,
	callErr error,
) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	p, err := uow.PaymentRepository().GetByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	now := h.now()
	if err = p.RecordAuthorization(result, key, now); err != nil {
		return err
	}
	if result.Success {
		err = o.MarkPaymentAuthorized(now)
	} else {
		o.MarkPaymentFailed(now)
		if err = o.Cancel(order.SystemActor, "payment authorization failed", now); err == nil {
			err = unreserveInventory(ctx, ledger.New(uow.StockRepository(), h.log).WithClock(h.now), o)
		}
	}
	if err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	if err = uow.PaymentRepository().Update(ctx, p); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if result.Success {
		return nil
	}
	h.log.Warn("payment authorization failed, order cancelled",
		zap.String("orderNumber", o.Number()), zap.String("message", result.Message))
	return paymentFailure(o.Number(), result, callErr)
}

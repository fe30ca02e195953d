package commands

import (
	"context"
	"time"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/model/returns"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CompleteReturnCommandHandler closes an inspected return in two phases so
// that restock and refund are each done once and can be retried separately.
//
//  1. One transaction fixes the refund amount, puts the returned units back
//     on hand with return movements, marks the order returned and, for an
//     exchange, opens a zero priced replacement order.
//  2. The refund goes through the gateway outside any transaction, capped at
//     what is still refundable. A second transaction records the answer and
//     completes the return.
//
// When the refund fails the return stays inspected with restocked set and
// *errs.PaymentFailedError is returned; running the command again only
// retries the refund. Completing a completed return is a no-op.
type CompleteReturnCommandHandler struct {
	uowFactory UoWFactory
	gateway    ports.PaymentGateway
	calculator services.RefundCalculator
	log        *zap.Logger
	now        Clock
}

func NewCompleteReturnCommandHandler(
	uowFactory UoWFactory,
	gateway ports.PaymentGateway,
	log *zap.Logger,
) CompleteReturnCommandHandler {
	return CompleteReturnCommandHandler{
		uowFactory: uowFactory,
		gateway:    gateway,
		calculator: services.NewRefundCalculator(),
		log:        log.With(zap.String("handler", "complete_return")),
		now:        utcNow,
	}
}

func (h *CompleteReturnCommandHandler) Handle(ctx context.Context, cmd CompleteReturnCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	r, err := h.restock(ctx, cmd)
	if err != nil || r == nil {
		return err
	}
	return h.refund(ctx, cmd, r)
}

// restock runs the first phase. A nil return means there is nothing left to do.
func (h *CompleteReturnCommandHandler) restock(ctx context.Context, cmd CompleteReturnCommand) (*returns.Return, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	r, err := uow.ReturnRepository().GetForUpdate(ctx, cmd.ReturnID())
	if err != nil {
		return nil, err
	}
	if r.Status() == returns.Completed {
		return nil, nil
	}
	o, err := uow.OrderRepository().GetForUpdate(ctx, r.OrderID())
	if err != nil {
		return nil, err
	}

	// The amount is fixed by the first attempt unless an operator overrides it.
	if !r.IsRefunded() && (!r.IsRestocked() || cmd.RefundOverride() != nil) {
		amount, calcErr := h.calculator.Calculate(o, r, cmd.RefundOverride())
		if calcErr != nil {
			return nil, calcErr
		}
		if err = r.SetRefundAmount(amount); err != nil {
			return nil, err
		}
	}

	now := h.now()
	if !r.IsRestocked() {
		l := ledger.New(uow.StockRepository(), h.log).WithClock(h.now)
		if err = h.putBack(ctx, l, o, r); err != nil {
			return nil, err
		}
		if err = r.MarkRestocked(now); err != nil {
			return nil, err
		}
		o.SettleReturn(r.ID(), now)
		if err = o.MarkReturned(cmd.Actor(), now); err != nil {
			return nil, err
		}
		if r.Type() == returns.Exchange && r.ExchangeOrderID() == nil {
			if err = h.openExchange(ctx, uow, l, o, r, now); err != nil {
				return nil, err
			}
		}
	}
	if !r.IsRefunded() && !r.NeedsGatewayRefund() {
		if err = r.MarkRefunded("", now); err != nil {
			return nil, err
		}
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}
	if err = uow.ReturnRepository().Update(ctx, r); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *CompleteReturnCommandHandler) putBack(ctx context.Context, l *ledger.Ledger, o *order.Order, r *returns.Return) error {
	for _, returned := range r.Items() {
		line, err := o.Item(returned.OrderItemID)
		if err != nil {
			return err
		}
		if line.Product().IsDigital || line.WarehouseID() == nil {
			continue
		}
		product := line.Product()
		if _, err = l.RestockAt(ctx, ledger.Location{
			ProductID:   product.ProductID,
			VariantID:   product.VariantID,
			WarehouseID: *line.WarehouseID(),
		}, ledger.Receipt{
			Quantity:  returned.Quantity,
			Type:      inventory.Return,
			Reference: kernel.RefTo(kernel.EntityReturn, r.ID()),
			Note:      r.Number(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// openExchange creates a pending replacement order for the returned
// products at no charge and reserves its stock.
func (h *CompleteReturnCommandHandler) openExchange(
	ctx context.Context,
	uow UoW,
	l *ledger.Ledger,
	original *order.Order,
	r *returns.Return,
	now time.Time,
) error {
	exchange, err := order.NewOrder(
		kernel.NewUUID(),
		kernel.NewReferenceNumber(kernel.OrderNumberPrefix, now),
		original.Currency(),
		original.Addresses(),
		original.PaymentMethodRef(),
		now,
	)
	if err != nil {
		return err
	}
	if err = exchange.MarkAsExchangeFor(original.ID()); err != nil {
		return err
	}
	for _, returned := range r.Items() {
		line, lineErr := original.Item(returned.OrderItemID)
		if lineErr != nil {
			return lineErr
		}
		item, itemErr := order.NewItem(kernel.NewUUID(), line.Product(), line.WarehouseID(), returned.Quantity,
			decimal.Zero, decimal.Zero, decimal.Zero)
		if itemErr != nil {
			return itemErr
		}
		if err = exchange.AddItem(item, now); err != nil {
			return err
		}
	}
	if err = reserveInventory(ctx, l, exchange); err != nil {
		return err
	}

	p, err := payment.NewPayment(kernel.NewUUID(), exchange.ID(), decimal.Zero, exchange.Currency(),
		exchange.PaymentMethodRef(), now)
	if err != nil {
		return err
	}
	key := payment.IdempotencyKey(payment.Authorize, kernel.RefTo(kernel.EntityOrder, exchange.ID()))
	if err = p.RecordAuthorization(payment.GatewayResult{Success: true}, key, now); err != nil {
		return err
	}
	if err = exchange.MarkPaymentAuthorized(now); err != nil {
		return err
	}

	if err = uow.OrderRepository().Add(ctx, exchange); err != nil {
		return err
	}
	if err = uow.PaymentRepository().Add(ctx, p); err != nil {
		return err
	}
	return r.LinkExchangeOrder(exchange.ID())
}

// refund runs the second phase.
func (h *CompleteReturnCommandHandler) refund(ctx context.Context, cmd CompleteReturnCommand, r *returns.Return) error {
	key := payment.IdempotencyKey(payment.Refund, kernel.RefTo(kernel.EntityReturn, r.ID()))
	result := payment.GatewayResult{Success: true}
	amount := decimal.Zero
	var callErr error

	if !r.IsRefunded() {
		p, err := h.uowFactory.Create().PaymentRepository().GetByOrder(ctx, r.OrderID())
		if err != nil {
			return err
		}
		if tx, done := p.SucceededTransaction(key); done {
			result.Reference = tx.GatewayReference
		} else if amount = p.CapRefund(r.RefundAmount()); amount.IsPositive() {
			result, callErr = callGateway(ctx, h.gateway.Refund, ports.PaymentRequest{
				OrderID:        r.OrderID(),
				Reference:      gatewayReference(p, payment.Capture),
				Amount:         amount,
				Currency:       p.Currency(),
				MethodRef:      p.MethodRef(),
				IdempotencyKey: key,
			})
		}
	}

	if err := h.finish(ctx, cmd, amount, result, key); err != nil {
		return err
	}
	if !result.Success {
		h.log.Warn("return refund failed, completion left pending",
			zap.String("returnNumber", r.Number()), zap.String("message", result.Message))
		return paymentFailure(r.Number(), result, callErr)
	}
	return nil
}

// finish records the refund answer and completes the return when it succeeded.
func (h *CompleteReturnCommandHandler) finish(
	ctx context.Context,
	cmd CompleteReturnCommand,
	amount decimal.Decimal,
	result payment.GatewayResult,
	key string,
) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	r, err := uow.ReturnRepository().GetForUpdate(ctx, cmd.ReturnID())
	if err != nil {
		return err
	}
	if r.Status() == returns.Completed {
		return nil
	}

	now := h.now()
	if amount.IsPositive() {
		o, orderErr := uow.OrderRepository().GetForUpdate(ctx, r.OrderID())
		if orderErr != nil {
			return orderErr
		}
		p, paymentErr := uow.PaymentRepository().GetByOrder(ctx, r.OrderID())
		if paymentErr != nil {
			return paymentErr
		}
		if err = p.RecordRefund(p.CapRefund(amount), result, key, now); err != nil {
			return err
		}
		if result.Success {
			if err = o.MarkRefunded(p.IsFullyRefunded(), cmd.Actor(), now); err != nil {
				return err
			}
			if err = uow.OrderRepository().Update(ctx, o); err != nil {
				return err
			}
		}
		if err = uow.PaymentRepository().Update(ctx, p); err != nil {
			return err
		}
	}

	if result.Success {
		if !r.IsRefunded() {
			if err = r.MarkRefunded(result.Reference, now); err != nil {
				return err
			}
		}
		if err = r.Complete(now); err != nil {
			return err
		}
		if err = uow.ReturnRepository().Update(ctx, r); err != nil {
			return err
		}
	}

	return uow.Commit(ctx)
}

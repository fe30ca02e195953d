package commands

import (
	"context"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/ports"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CancelOrderCommandHandler cancels an order and releases its stock in one
// transaction, then settles the payment with the gateway: an uncaptured
// authorization is voided, captured money is refunded in full.
//
// A failed settlement returns *errs.PaymentFailedError; the order stays
// cancelled and the failed attempt is recorded on the payment.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	gateway    ports.PaymentGateway
	log        *zap.Logger
	now        Clock
}

func NewCancelOrderCommandHandler(
	uowFactory UoWFactory,
	gateway ports.PaymentGateway,
	log *zap.Logger,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		gateway:    gateway,
		log:        log.With(zap.String("handler", "cancel_order")),
		now:        utcNow,
	}
}

func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	prior, number, err := h.cancel(ctx, cmd)
	if err != nil {
		return err
	}

	switch {
	case prior == order.PaymentAuthorized:
		return h.void(ctx, cmd.OrderID(), number)
	case prior.IsCaptured():
		return h.refund(ctx, cmd, number)
	default:
		return nil
	}
}

// cancel returns the payment status the order had before cancellation.
func (h *CancelOrderCommandHandler) cancel(ctx context.Context, cmd CancelOrderCommand) (order.PaymentStatus, string, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, "", err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return 0, "", err
	}
	prior := o.PaymentStatus()

	if err = o.Cancel(cmd.Actor(), cmd.Reason(), h.now()); err != nil {
		return 0, "", err
	}
	if err = unreserveInventory(ctx, ledger.New(uow.StockRepository(), h.log).WithClock(h.now), o); err != nil {
		return 0, "", err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return 0, "", err
	}

	return prior, o.Number(), uow.Commit(ctx)
}

func (h *CancelOrderCommandHandler) void(ctx context.Context, orderID kernel.UUID, number string) error {
	p, err := h.uowFactory.Create().PaymentRepository().GetByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if p.Status() != payment.Processing {
		return nil
	}

	key := payment.IdempotencyKey(payment.Void, kernel.RefTo(kernel.EntityOrder, orderID))
	result, callErr := callGateway(ctx, h.gateway.Void, ports.PaymentRequest{
		OrderID:        orderID,
		Reference:      gatewayReference(p, payment.Authorize),
		Amount:         p.AuthorizedAmount(),
		Currency:       p.Currency(),
		MethodRef:      p.MethodRef(),
		IdempotencyKey: key,
	})

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if p, err = uow.PaymentRepository().GetByOrder(ctx, orderID); err != nil {
		return err
	}
	if err = p.RecordVoid(result, key, h.now()); err != nil {
		return err
	}
	if err = uow.PaymentRepository().Update(ctx, p); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if !result.Success {
		h.log.Warn("void of cancelled order failed", zap.String("orderNumber", number),
			zap.String("message", result.Message))
		return paymentFailure(number, result, callErr)
	}
	return nil
}

func (h *CancelOrderCommandHandler) refund(ctx context.Context, cmd CancelOrderCommand, number string) error {
	p, err := h.uowFactory.Create().PaymentRepository().GetByOrder(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	key := payment.IdempotencyKey(payment.Refund, kernel.RefTo(kernel.EntityOrder, cmd.OrderID()))
	if _, done := p.SucceededTransaction(key); done {
		return nil
	}
	amount := p.Refundable()
	if !amount.IsPositive() {
		return nil
	}

	result, callErr := callGateway(ctx, h.gateway.Refund, ports.PaymentRequest{
		OrderID:        cmd.OrderID(),
		Reference:      gatewayReference(p, payment.Capture),
		Amount:         amount,
		Currency:       p.Currency(),
		MethodRef:      p.MethodRef(),
		IdempotencyKey: key,
	})
	if err = h.recordRefund(ctx, cmd, amount, result, key); err != nil {
		return err
	}

	if !result.Success {
		h.log.Warn("refund of cancelled order failed", zap.String("orderNumber", number),
			zap.String("message", result.Message))
		return paymentFailure(number, result, callErr)
	}
	return nil
}

func (h *CancelOrderCommandHandler) recordRefund(
	ctx context.Context,
	cmd CancelOrderCommand,
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

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	p, err := uow.PaymentRepository().GetByOrder(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	now := h.now()
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

	return uow.Commit(ctx)
}

package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"go.uber.org/zap"
)

// CapturePaymentCommandHandler captures an authorization. The gateway is
// called outside the transaction with a key derived from the order, so a
// retried capture cannot charge twice. Capturing an already captured order
// is a no-op.
type CapturePaymentCommandHandler struct {
	uowFactory UoWFactory
	gateway    ports.PaymentGateway
	log        *zap.Logger
	now        Clock
}

func NewCapturePaymentCommandHandler(
	uowFactory UoWFactory,
	gateway ports.PaymentGateway,
	log *zap.Logger,
) CapturePaymentCommandHandler {
	return CapturePaymentCommandHandler{
		uowFactory: uowFactory,
		gateway:    gateway,
		log:        log.With(zap.String("handler", "capture_payment")),
		now:        utcNow,
	}
}

func (h *CapturePaymentCommandHandler) Handle(ctx context.Context, cmd CapturePaymentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	reader := h.uowFactory.Create()
	o, err := reader.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if o.PaymentStatus().IsCaptured() {
		return nil
	}
	if o.PaymentStatus() != order.PaymentAuthorized {
		return errs.NewIllegalTransitionError("payment", o.PaymentStatus(), order.PaymentPaid)
	}
	p, err := reader.PaymentRepository().GetByOrder(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	key := payment.IdempotencyKey(payment.Capture, kernel.RefTo(kernel.EntityOrder, cmd.OrderID()))
	result := payment.GatewayResult{Success: true}
	var callErr error
	if tx, done := p.SucceededTransaction(key); done {
		result.Reference = tx.GatewayReference
	} else if p.AuthorizedAmount().IsPositive() {
		result, callErr = callGateway(ctx, h.gateway.Capture, ports.PaymentRequest{
			OrderID:        cmd.OrderID(),
			Reference:      gatewayReference(p, payment.Authorize),
			Amount:         p.AuthorizedAmount(),
			Currency:       p.Currency(),
			MethodRef:      p.MethodRef(),
			IdempotencyKey: key,
		})
	}

	if err = h.record(ctx, cmd, result, key); err != nil {
		return err
	}
	if !result.Success {
		h.log.Warn("payment capture failed", zap.String("orderNumber", o.Number()),
			zap.String("message", result.Message))
		return paymentFailure(o.Number(), result, callErr)
	}
	return nil
}

func (h *CapturePaymentCommandHandler) record(
	ctx context.Context,
	cmd CapturePaymentCommand,
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
	if err = p.RecordCapture(result, key, now); err != nil {
		return err
	}
	if result.Success {
		if err = o.MarkPaymentCaptured(cmd.Actor(), now); err != nil {
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

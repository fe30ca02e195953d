package commands

import (
	"context"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"

	"go.uber.org/zap"
)

// ScheduleInboundCommandHandler records a pending inbound movement and
// returns its id, which ConfirmMovement and CancelMovement take.
type ScheduleInboundCommandHandler struct {
	uowFactory StockUoWFactory
	log        *zap.Logger
	now        Clock
}

func NewScheduleInboundCommandHandler(uowFactory StockUoWFactory, log *zap.Logger) ScheduleInboundCommandHandler {
	return ScheduleInboundCommandHandler{
		uowFactory: uowFactory,
		log:        log,
		now:        utcNow,
	}
}

func (h *ScheduleInboundCommandHandler) Handle(ctx context.Context, cmd ScheduleInboundCommand) (kernel.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return kernel.UUID{}, err
	}

	var m *inventory.Movement
	err := withStockLedger(ctx, h.uowFactory, h.log, h.now, func(l *ledger.Ledger) (err error) {
		delivery := cmd.Delivery()
		m, err = l.ScheduleInbound(ctx, delivery.Location, delivery.receipt())
		return err
	})
	if err != nil {
		return kernel.UUID{}, err
	}
	return m.ID(), nil
}

// ConfirmMovementCommandHandler receives a pending movement onto the shelf.
type ConfirmMovementCommandHandler struct {
	uowFactory StockUoWFactory
	log        *zap.Logger
	now        Clock
}

func NewConfirmMovementCommandHandler(uowFactory StockUoWFactory, log *zap.Logger) ConfirmMovementCommandHandler {
	return ConfirmMovementCommandHandler{uowFactory: uowFactory, log: log, now: utcNow}
}

func (h *ConfirmMovementCommandHandler) Handle(ctx context.Context, cmd MovementCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return withStockLedger(ctx, h.uowFactory, h.log, h.now, func(l *ledger.Ledger) error {
		_, err := l.ConfirmMovement(ctx, cmd.MovementID())
		return err
	})
}

// CancelMovementCommandHandler discards a pending movement.
type CancelMovementCommandHandler struct {
	uowFactory StockUoWFactory
	log        *zap.Logger
	now        Clock
}

func NewCancelMovementCommandHandler(uowFactory StockUoWFactory, log *zap.Logger) CancelMovementCommandHandler {
	return CancelMovementCommandHandler{uowFactory: uowFactory, log: log, now: utcNow}
}

func (h *CancelMovementCommandHandler) Handle(ctx context.Context, cmd MovementCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return withStockLedger(ctx, h.uowFactory, h.log, h.now, func(l *ledger.Ledger) error {
		_, err := l.CancelMovement(ctx, cmd.MovementID())
		return err
	})
}

// withStockLedger runs fn against the ledger of a fresh stock unit of work
// and commits when it succeeds.
func withStockLedger(
	ctx context.Context,
	factory StockUoWFactory,
	log *zap.Logger,
	now Clock,
	fn func(l *ledger.Ledger) error,
) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(ledger.New(uow.StockRepository(), log).WithClock(now)); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

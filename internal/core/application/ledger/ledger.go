// Package ledger implements the transactional stock primitives of the
// fulfillment service: reserve, unreserve, decrement, restock, transfer,
// allocate, adjust and the pending movement lifecycle.
//
// A Ledger is bound to the stock repository of one unit of work. Every
// primitive locks the stock records it touches, changes them, appends the
// matching movement and writes everything back inside that unit of work; the
// caller commits or rolls back. Records are always locked in ascending id
// order.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("fulfillment/ledger")

// Ledger is the inventory ledger of one unit of work.
type Ledger struct {
	repo      ports.StockRepository
	allocator services.StockAllocator
	log       *zap.Logger
	now       func() time.Time
}

func New(repo ports.StockRepository, log *zap.Logger) *Ledger {
	return &Ledger{
		repo:      repo,
		allocator: services.NewStockAllocator(),
		log:       log.With(zap.String("component", "ledger")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Hold identifies the order line a reservation belongs to.
type Hold struct {
	OrderID       kernel.UUID
	OrderItemID   kernel.UUID
	StockRecordID kernel.UUID
}

func (h Hold) Key() string {
	return inventory.ReservationKey(h.OrderID, h.OrderItemID, h.StockRecordID)
}

// Reserve holds qty units of a stock record for an order line.
//
// The call is idempotent on the hold: replaying it while the reservation is
// active with the same quantity changes nothing. A released or consumed
// reservation is held again, so a line that grows after part of it shipped
// gets a fresh hold at the same record.
//
// Returns:
//   - *errs.InsufficientStockError, changing nothing, when available < qty
//   - *errs.ValueIsInvalidError when the hold is active with another quantity;
//     release it first
func (l *Ledger) Reserve(ctx context.Context, hold Hold, qty int) (err error) {
	ctx, span := l.start(ctx, "Reserve", attribute.String("stock_record.id", hold.StockRecordID.String()),
		attribute.Int("quantity", qty))
	defer func() { l.finish(span, "reserve", err) }()

	existing, err := l.repo.GetReservation(ctx, hold.Key())
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}
	if existing != nil && existing.Status() == inventory.Active {
		if existing.IsReplayOf(qty) {
			span.SetAttributes(attribute.Bool("replayed", true))
			return nil
		}
		return errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("hold %s already holds %d units", hold.Key(), existing.Quantity()))
	}

	rec, err := l.repo.GetForUpdate(ctx, hold.StockRecordID)
	if err != nil {
		return err
	}
	wasLow := rec.IsBelowReorderPoint()
	if err = rec.Reserve(qty); err != nil {
		return err
	}

	if existing != nil {
		err = existing.Reactivate(qty, l.now())
	} else {
		existing, err = inventory.NewReservation(hold.StockRecordID, hold.OrderID, hold.OrderItemID, qty, l.now())
	}
	if err != nil {
		return err
	}

	if err = l.save(ctx, rec, wasLow); err != nil {
		return err
	}
	return l.repo.SaveReservation(ctx, existing)
}

// Unreserve gives back up to qty units of one hold and returns the released
// quantity. A hold that is not active releases nothing. The record's
// reserved quantity only ever drops together with a reservation.
func (l *Ledger) Unreserve(ctx context.Context, hold Hold, qty int) (released int, err error) {
	ctx, span := l.start(ctx, "Unreserve", attribute.String("stock_record.id", hold.StockRecordID.String()))
	defer func() { l.finish(span, "unreserve", err) }()

	reservation, err := l.repo.GetReservation(ctx, hold.Key())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if reservation.Status() != inventory.Active {
		return 0, nil
	}

	rec, err := l.repo.GetForUpdate(ctx, hold.StockRecordID)
	if err != nil {
		return 0, err
	}
	if released, err = reservation.Reduce(qty, l.now()); err != nil {
		return 0, err
	}
	if released > 0 {
		if _, err = rec.Unreserve(released); err != nil {
			return 0, err
		}
		if err = l.repo.Update(ctx, rec); err != nil {
			return 0, err
		}
	}
	return released, l.repo.SaveReservation(ctx, reservation)
}

// ReleaseOrder releases every active reservation of an order.
func (l *Ledger) ReleaseOrder(ctx context.Context, orderID kernel.UUID) (int, error) {
	return l.release(ctx, orderID, nil)
}

// ReleaseItem releases every active reservation of one order line.
func (l *Ledger) ReleaseItem(ctx context.Context, orderID, orderItemID kernel.UUID) (int, error) {
	return l.release(ctx, orderID, &orderItemID)
}

func (l *Ledger) release(ctx context.Context, orderID kernel.UUID, itemID *kernel.UUID) (total int, err error) {
	ctx, span := l.start(ctx, "Release", attribute.String("order.id", orderID.String()))
	defer func() { l.finish(span, "release", err) }()

	reservations, err := l.repo.ListActiveReservations(ctx, orderID, itemID)
	if err != nil {
		return 0, err
	}
	slices.SortFunc(reservations, func(a, b *inventory.Reservation) int {
		return compareUUID(a.StockRecordID(), b.StockRecordID())
	})

	for _, reservation := range reservations {
		qty, releaseErr := reservation.Release(l.now())
		if releaseErr != nil {
			return total, releaseErr
		}
		if qty > 0 {
			rec, getErr := l.repo.GetForUpdate(ctx, reservation.StockRecordID())
			if getErr != nil {
				return total, getErr
			}
			if _, err = rec.Unreserve(qty); err != nil {
				return total, err
			}
			if err = l.repo.Update(ctx, rec); err != nil {
				return total, err
			}
		}
		if err = l.repo.SaveReservation(ctx, reservation); err != nil {
			return total, err
		}
		total += qty
	}
	return total, nil
}

// Decrement removes physical stock at dispatch.
type Decrement struct {
	StockRecordID kernel.UUID
	Quantity      int
	Reference     kernel.EntityRef
	// Hold, when set, is the reservation consumed by the dispatch.
	Hold *Hold
}

// DecrementOnHand removes qty units at dispatch and appends a completed
// outbound movement. The dispatching line's own hold on the record is
// consumed first; any rest comes from available stock. Holds of other order
// lines are never taken.
//
// Returns:
//   - *errs.InsufficientStockError when qty exceeds the line's hold plus
//     available stock
//   - *errs.ReservationDesyncError when the line's hold is not backed by the
//     record's reserved stock; this is logged as an alert
func (l *Ledger) DecrementOnHand(ctx context.Context, req Decrement) (m *inventory.Movement, err error) {
	ctx, span := l.start(ctx, "DecrementOnHand", attribute.String("stock_record.id", req.StockRecordID.String()),
		attribute.Int("quantity", req.Quantity))
	defer func() { l.finish(span, "decrement", err) }()

	var reservation *inventory.Reservation
	if req.Hold != nil {
		reservation, err = l.repo.GetReservation(ctx, req.Hold.Key())
		if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
			return nil, err
		}
		err = nil
		if reservation != nil && reservation.Status() != inventory.Active {
			reservation = nil
		}
	}

	rec, err := l.repo.GetForUpdate(ctx, req.StockRecordID)
	if err != nil {
		return nil, err
	}
	held := 0
	if reservation != nil {
		held = min(req.Quantity, reservation.Quantity())
	}
	if held > rec.Reserved() || held > rec.OnHand() {
		desync := errs.NewReservationDesyncError(rec.ID().String(), req.Quantity, rec.OnHand(), rec.Reserved())
		metrics.ReservationDesyncs.Inc()
		l.log.Error("reservation desync: held stock is not on hand",
			zap.String("stockRecordId", rec.ID().String()),
			zap.String("reservationKey", reservation.Key()),
			zap.Int("requested", req.Quantity),
			zap.Int("held", held),
			zap.Int("onHand", rec.OnHand()),
			zap.Int("reserved", rec.Reserved()),
		)
		return nil, desync
	}

	wasLow := rec.IsBelowReorderPoint()
	if err = rec.DecrementOnHand(req.Quantity, held); err != nil {
		return nil, err
	}
	warehouseID := rec.WarehouseID()
	m, err = inventory.NewMovement(rec.ID(), inventory.Outbound, -req.Quantity, req.Reference,
		inventory.MovementDetails{SourceWarehouseID: &warehouseID}, l.now())
	if err != nil {
		return nil, err
	}

	if reservation != nil {
		if _, err = reservation.Consume(req.Quantity, l.now()); err != nil {
			return nil, err
		}
		if err = l.repo.SaveReservation(ctx, reservation); err != nil {
			return nil, err
		}
	}
	if err = l.save(ctx, rec, wasLow); err != nil {
		return nil, err
	}
	return m, l.repo.AddMovement(ctx, m)
}

// Receipt adds physical stock to an existing record.
type Receipt struct {
	StockRecordID kernel.UUID
	Quantity      int
	// Type is inventory.Inbound or inventory.Return.
	Type      inventory.MovementType
	Reference kernel.EntityRef
	Batch     string
	UnitCost  *decimal.Decimal
	Note      string
}

// Restock adds qty units and appends a completed inbound or return movement.
func (l *Ledger) Restock(ctx context.Context, req Receipt) (m *inventory.Movement, err error) {
	ctx, span := l.start(ctx, "Restock", attribute.String("stock_record.id", req.StockRecordID.String()),
		attribute.Int("quantity", req.Quantity))
	defer func() { l.finish(span, "restock", err) }()

	if req.Type != inventory.Inbound && req.Type != inventory.Return {
		return nil, errs.NewValueIsInvalidErrorWithCause("movementType",
			fmt.Errorf("%s cannot restock", req.Type))
	}

	rec, err := l.repo.GetForUpdate(ctx, req.StockRecordID)
	if err != nil {
		return nil, err
	}
	warehouseID := rec.WarehouseID()
	m, err = inventory.NewMovement(rec.ID(), req.Type, req.Quantity, req.Reference, inventory.MovementDetails{
		DestWarehouseID: &warehouseID,
		Batch:           req.Batch,
		UnitCost:        req.UnitCost,
		Note:            req.Note,
	}, l.now())
	if err != nil {
		return nil, err
	}
	if err = rec.Receive(req.Quantity); err != nil {
		return nil, err
	}
	if err = l.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return m, l.repo.AddMovement(ctx, m)
}

// Location identifies a stock record by what it holds and where.
type Location struct {
	ProductID   kernel.UUID
	VariantID   *kernel.UUID
	WarehouseID kernel.UUID
}

// RestockAt restocks the record of a location, creating it when the location
// has never held the product.
func (l *Ledger) RestockAt(ctx context.Context, loc Location, req Receipt) (*inventory.Movement, error) {
	rec, err := l.findOrCreate(ctx, loc)
	if err != nil {
		return nil, err
	}
	req.StockRecordID = rec.ID()
	return l.Restock(ctx, req)
}

// TransferRequest moves stock between warehouses.
type TransferRequest struct {
	SourceStockRecordID kernel.UUID
	DestWarehouseID     kernel.UUID
	Quantity            int
	Reference           kernel.EntityRef
	Note                string
}

// Transfer debits the source record and credits the record of the same
// product at the destination, creating it when needed. A pair of transfer
// movements (−qty, +qty) is appended.
func (l *Ledger) Transfer(ctx context.Context, req TransferRequest) (out, in *inventory.Movement, err error) {
	ctx, span := l.start(ctx, "Transfer", attribute.String("stock_record.id", req.SourceStockRecordID.String()),
		attribute.String("dest_warehouse.id", req.DestWarehouseID.String()), attribute.Int("quantity", req.Quantity))
	defer func() { l.finish(span, "transfer", err) }()

	if req.Quantity <= 0 {
		return nil, nil, errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("%d is not greater than 0", req.Quantity))
	}

	peek, err := l.repo.Get(ctx, req.SourceStockRecordID)
	if err != nil {
		return nil, nil, err
	}
	if peek.WarehouseID().IsEqual(req.DestWarehouseID) {
		return nil, nil, errs.NewValueIsInvalidErrorWithCause("destWarehouseId",
			errors.New("source and destination warehouse are the same"))
	}
	dest, err := l.findOrCreate(ctx, Location{
		ProductID:   peek.ProductID(),
		VariantID:   peek.VariantID(),
		WarehouseID: req.DestWarehouseID,
	})
	if err != nil {
		return nil, nil, err
	}

	locked, err := l.lockInOrder(ctx, req.SourceStockRecordID, dest.ID())
	if err != nil {
		return nil, nil, err
	}
	source, dest := locked[req.SourceStockRecordID], locked[dest.ID()]

	wasLow := source.IsBelowReorderPoint()
	if err = source.Withdraw(req.Quantity); err != nil {
		return nil, nil, err
	}
	if err = dest.Receive(req.Quantity); err != nil {
		return nil, nil, err
	}

	sourceWarehouse, destWarehouse := source.WarehouseID(), dest.WarehouseID()
	details := inventory.MovementDetails{SourceWarehouseID: &sourceWarehouse, DestWarehouseID: &destWarehouse, Note: req.Note}
	if out, err = inventory.NewMovement(source.ID(), inventory.Transfer, -req.Quantity, req.Reference, details, l.now()); err != nil {
		return nil, nil, err
	}
	if in, err = inventory.NewMovement(dest.ID(), inventory.Transfer, req.Quantity, req.Reference, details, l.now()); err != nil {
		return nil, nil, err
	}

	if err = errors.Join(l.save(ctx, source, wasLow), l.repo.Update(ctx, dest)); err != nil {
		return nil, nil, err
	}
	if err = errors.Join(l.repo.AddMovement(ctx, out), l.repo.AddMovement(ctx, in)); err != nil {
		return nil, nil, err
	}
	return out, in, nil
}

// AllocateAcrossWarehouses locks every record of a product variant and splits
// qty greedily across them. The deficit is reported, not treated as an error.
func (l *Ledger) AllocateAcrossWarehouses(
	ctx context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
	qty int,
	preferredWarehouseID *kernel.UUID,
) (allocation services.Allocation, err error) {
	ctx, span := l.start(ctx, "AllocateAcrossWarehouses", attribute.String("product.id", productID.String()),
		attribute.Int("quantity", qty))
	defer func() { l.finish(span, "allocate", err) }()

	records, err := l.repo.ListByProductForUpdate(ctx, productID, variantID)
	if err != nil {
		return services.Allocation{}, err
	}
	if len(records) == 0 {
		return services.Allocation{Deficit: qty}, nil
	}
	allocation, err = l.allocator.Allocate(records, qty, preferredWarehouseID)
	if err != nil {
		return services.Allocation{}, err
	}
	span.SetAttributes(attribute.Int("deficit", allocation.Deficit))
	return allocation, nil
}

// Adjustment is a manual correction of a location.
type Adjustment struct {
	Location
	Delta     int
	Reason    string
	Reference kernel.EntityRef
	// Dispose records a negative delta as a disposal instead of an adjustment.
	Dispose bool
}

// Adjust applies a signed correction, creating the record when needed. A
// negative delta requires available ≥ |delta|.
func (l *Ledger) Adjust(ctx context.Context, req Adjustment) (m *inventory.Movement, err error) {
	ctx, span := l.start(ctx, "Adjust", attribute.String("product.id", req.ProductID.String()),
		attribute.Int("delta", req.Delta))
	defer func() { l.finish(span, "adjust", err) }()

	movementType := inventory.Adjustment
	if req.Dispose {
		movementType = inventory.Disposal
	}
	if err = movementType.ValidateQuantity(req.Delta); err != nil {
		return nil, err
	}
	if req.Reference.IsZero() {
		req.Reference = kernel.RefTo(kernel.EntityAdjustment, kernel.NewUUID())
	}

	rec, err := l.findOrCreate(ctx, req.Location)
	if err != nil {
		return nil, err
	}
	if rec, err = l.repo.GetForUpdate(ctx, rec.ID()); err != nil {
		return nil, err
	}

	wasLow := rec.IsBelowReorderPoint()
	if req.Delta > 0 {
		err = rec.Receive(req.Delta)
	} else {
		err = rec.Withdraw(-req.Delta)
	}
	if err != nil {
		return nil, err
	}

	warehouseID := rec.WarehouseID()
	if m, err = inventory.NewMovement(rec.ID(), movementType, req.Delta, req.Reference,
		inventory.MovementDetails{DestWarehouseID: &warehouseID, Note: req.Reason}, l.now()); err != nil {
		return nil, err
	}
	if err = l.save(ctx, rec, wasLow); err != nil {
		return nil, err
	}
	return m, l.repo.AddMovement(ctx, m)
}

// ScheduleInbound announces stock that will arrive later, for example from a
// supplier order. On-hand stock does not change until ConfirmMovement.
func (l *Ledger) ScheduleInbound(ctx context.Context, loc Location, req Receipt) (m *inventory.Movement, err error) {
	ctx, span := l.start(ctx, "ScheduleInbound", attribute.String("product.id", loc.ProductID.String()),
		attribute.Int("quantity", req.Quantity))
	defer func() { l.finish(span, "schedule_inbound", err) }()

	rec, err := l.findOrCreate(ctx, loc)
	if err != nil {
		return nil, err
	}
	warehouseID := rec.WarehouseID()
	m, err = inventory.NewPendingMovement(rec.ID(), inventory.Inbound, req.Quantity, req.Reference,
		inventory.MovementDetails{DestWarehouseID: &warehouseID, Batch: req.Batch, UnitCost: req.UnitCost, Note: req.Note},
		l.now())
	if err != nil {
		return nil, err
	}
	return m, l.repo.AddMovement(ctx, m)
}

// ConfirmMovement completes a pending movement and applies its quantity.
//
// Returns errs.ErrInvalidMovementTransition (wrapped in an
// IllegalTransitionError) when the movement is not pending.
func (l *Ledger) ConfirmMovement(ctx context.Context, movementID kernel.UUID) (m *inventory.Movement, err error) {
	ctx, span := l.start(ctx, "ConfirmMovement", attribute.String("movement.id", movementID.String()))
	defer func() { l.finish(span, "confirm_movement", err) }()

	if m, err = l.repo.GetMovementForUpdate(ctx, movementID); err != nil {
		return nil, err
	}
	if err = m.Complete(l.now()); err != nil {
		return nil, err
	}

	rec, err := l.repo.GetForUpdate(ctx, m.StockRecordID())
	if err != nil {
		return nil, err
	}
	wasLow := rec.IsBelowReorderPoint()
	if m.Quantity() > 0 {
		err = rec.Receive(m.Quantity())
	} else {
		err = rec.Withdraw(-m.Quantity())
	}
	if err != nil {
		return nil, err
	}

	if err = l.save(ctx, rec, wasLow); err != nil {
		return nil, err
	}
	return m, l.repo.UpdateMovement(ctx, m)
}

// CancelMovement discards a pending movement. Stock is untouched.
func (l *Ledger) CancelMovement(ctx context.Context, movementID kernel.UUID) (m *inventory.Movement, err error) {
	ctx, span := l.start(ctx, "CancelMovement", attribute.String("movement.id", movementID.String()))
	defer func() { l.finish(span, "cancel_movement", err) }()

	if m, err = l.repo.GetMovementForUpdate(ctx, movementID); err != nil {
		return nil, err
	}
	if err = m.Cancel(); err != nil {
		return nil, err
	}
	return m, l.repo.UpdateMovement(ctx, m)
}

func (l *Ledger) findOrCreate(ctx context.Context, loc Location) (*inventory.StockRecord, error) {
	rec, err := l.repo.Find(ctx, loc.ProductID, loc.VariantID, loc.WarehouseID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, err
	}

	levels, err := inventory.NewLevels(0, 0, 0)
	if err != nil {
		return nil, err
	}
	rec, err = inventory.NewStockRecord(kernel.NewUUID(), loc.ProductID, loc.VariantID, loc.WarehouseID, 0, levels)
	if err != nil {
		return nil, err
	}
	if err = l.repo.Add(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *Ledger) lockInOrder(ctx context.Context, ids ...kernel.UUID) (map[kernel.UUID]*inventory.StockRecord, error) {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, compareUUID)

	locked := make(map[kernel.UUID]*inventory.StockRecord, len(sorted))
	for _, id := range sorted {
		if _, ok := locked[id]; ok {
			continue
		}
		rec, err := l.repo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = rec
	}
	return locked, nil
}

// save writes a record back and records a low stock event when this change
// took it to the reorder point.
func (l *Ledger) save(ctx context.Context, rec *inventory.StockRecord, wasLow bool) error {
	if !wasLow && rec.IsBelowReorderPoint() {
		rec.RecordLowStock(l.now())
	}
	return l.repo.Update(ctx, rec)
}

func (l *Ledger) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ledger."+name, trace.WithAttributes(attrs...))
}

func (l *Ledger) finish(span trace.Span, operation string, err error) {
	metrics.LedgerOperations.WithLabelValues(operation, metrics.Outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func compareUUID(a, b kernel.UUID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

package ledger_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var clock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func newRecord(t *testing.T, onHand, reserved, reorderPoint int) *inventory.StockRecord {
	t.Helper()
	levels, err := inventory.NewLevels(0, 0, reorderPoint)
	require.NoError(t, err)
	rec, err := inventory.RestoreStockRecord(kernel.NewUUID(), kernel.NewUUID(), nil, kernel.NewUUID(),
		onHand, reserved, onHand, levels, 1)
	require.NoError(t, err)
	return rec
}

func newLedger(repo *memoryRepository) *ledger.Ledger {
	return ledger.New(repo, zap.NewNop()).WithClock(clock)
}

func holdOn(rec *inventory.StockRecord) ledger.Hold {
	return ledger.Hold{OrderID: kernel.NewUUID(), OrderItemID: kernel.NewUUID(), StockRecordID: rec.ID()}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestLedger_Reserve(t *testing.T) {
	t.Run("should reserve and release on cancel", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		hold := holdOn(rec)

		require.NoError(t, l.Reserve(t.Context(), hold, 3))
		assert.Equal(t, 7, rec.Available())

		released, err := l.ReleaseOrder(t.Context(), hold.OrderID)

		require.NoError(t, err)
		assert.Equal(t, 3, released)
		assert.Equal(t, 10, rec.Available())
		assert.Equal(t, 0, rec.Reserved())
		assert.Empty(t, repo.movements)
	})

	t.Run("should fail and leave the record unchanged when stock is short", func(t *testing.T) {
		rec := newRecord(t, 10, 7, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)

		err := l.Reserve(t.Context(), holdOn(rec), 5)

		require.ErrorIs(t, err, errs.ErrInsufficientStock)
		var shortErr *errs.InsufficientStockError
		require.ErrorAs(t, err, &shortErr)
		assert.Equal(t, 5, shortErr.Requested)
		assert.Equal(t, 3, shortErr.Available)
		assert.Equal(t, 10, rec.OnHand())
		assert.Equal(t, 7, rec.Reserved())
		assert.Equal(t, 1, rec.Version())
		assert.Empty(t, repo.reservations)
		assert.Zero(t, repo.updates)
	})

	t.Run("should reserve once per key", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		l := newLedger(newMemoryRepository(rec))
		hold := holdOn(rec)

		require.NoError(t, l.Reserve(t.Context(), hold, 3))
		require.NoError(t, l.Reserve(t.Context(), hold, 3))

		assert.Equal(t, 3, rec.Reserved())
	})

	t.Run("should hold again under a released key", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		hold := holdOn(rec)
		require.NoError(t, l.Reserve(t.Context(), hold, 3))
		_, err := l.ReleaseItem(t.Context(), hold.OrderID, hold.OrderItemID)
		require.NoError(t, err)

		require.NoError(t, l.Reserve(t.Context(), hold, 4))

		assert.Equal(t, 4, rec.Reserved())
		assert.Equal(t, inventory.Active, repo.reservations[hold.Key()].Status())
	})

	t.Run("should refuse another quantity on an active hold", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		l := newLedger(newMemoryRepository(rec))
		hold := holdOn(rec)
		require.NoError(t, l.Reserve(t.Context(), hold, 3))

		err := l.Reserve(t.Context(), hold, 5)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, 3, rec.Reserved())
	})

	t.Run("should hold again under a consumed key", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		hold := holdOn(rec)
		require.NoError(t, l.Reserve(t.Context(), hold, 2))
		_, err := l.DecrementOnHand(t.Context(), ledger.Decrement{
			StockRecordID: rec.ID(),
			Quantity:      2,
			Reference:     kernel.RefTo(kernel.EntityShipment, kernel.NewUUID()),
			Hold:          &hold,
		})
		require.NoError(t, err)
		require.Equal(t, inventory.Consumed, repo.reservations[hold.Key()].Status())

		require.NoError(t, l.Reserve(t.Context(), hold, 4))

		assert.Equal(t, 8, rec.OnHand())
		assert.Equal(t, 4, rec.Reserved())
		assert.Equal(t, 4, repo.heldOn(rec.ID()))
	})

	t.Run("should restore availability on unreserve", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		hold := holdOn(rec)
		before := rec.Available()

		require.NoError(t, l.Reserve(t.Context(), hold, 4))
		released, err := l.Unreserve(t.Context(), hold, 4)

		require.NoError(t, err)
		assert.Equal(t, 4, released)
		assert.Equal(t, before, rec.Available())
		assert.Equal(t, inventory.Released, repo.reservations[hold.Key()].Status())
	})

	t.Run("should release part of a hold", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		hold := holdOn(rec)
		require.NoError(t, l.Reserve(t.Context(), hold, 4))

		released, err := l.Unreserve(t.Context(), hold, 1)

		require.NoError(t, err)
		assert.Equal(t, 1, released)
		assert.Equal(t, 3, rec.Reserved())
		assert.Equal(t, 3, repo.reservations[hold.Key()].Quantity())
		assert.Equal(t, inventory.Active, repo.reservations[hold.Key()].Status())
	})

	t.Run("should floor unreserve at the hold", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		mine, theirs := holdOn(rec), holdOn(rec)
		require.NoError(t, l.Reserve(t.Context(), mine, 2))
		require.NoError(t, l.Reserve(t.Context(), theirs, 3))

		released, err := l.Unreserve(t.Context(), mine, 5)

		require.NoError(t, err)
		assert.Equal(t, 2, released)
		assert.Equal(t, 3, rec.Reserved())
		assert.Equal(t, 3, repo.heldOn(rec.ID()))
	})

	t.Run("should release nothing without an active hold", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		l := newLedger(newMemoryRepository(rec))

		released, err := l.Unreserve(t.Context(), holdOn(rec), 5)

		require.NoError(t, err)
		assert.Zero(t, released)
		assert.Equal(t, 0, rec.Reserved())
	})

	t.Run("should record a low stock event once", func(t *testing.T) {
		rec := newRecord(t, 8, 0, 5)
		l := newLedger(newMemoryRepository(rec))

		require.NoError(t, l.Reserve(t.Context(), holdOn(rec), 3))
		require.NoError(t, l.Reserve(t.Context(), holdOn(rec), 1))

		events := rec.PullEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "stock.below_reorder_point", events[0].Name())
		assert.Equal(t, "5", events[0].Attributes()["available"])
	})
}

func TestLedger_DecrementOnHand(t *testing.T) {
	t.Run("should consume the reservation and append an outbound movement", func(t *testing.T) {
		rec := newRecord(t, 10, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		hold := holdOn(rec)
		require.NoError(t, l.Reserve(t.Context(), hold, 3))

		m, err := l.DecrementOnHand(t.Context(), ledger.Decrement{
			StockRecordID: rec.ID(),
			Quantity:      3,
			Reference:     kernel.RefTo(kernel.EntityShipment, kernel.NewUUID()),
			Hold:          &hold,
		})

		require.NoError(t, err)
		assert.Equal(t, 7, rec.OnHand())
		assert.Equal(t, 0, rec.Reserved())
		assert.Equal(t, -3, m.Quantity())
		assert.Equal(t, inventory.Outbound, m.Type())
		assert.Equal(t, inventory.Consumed, repo.reservations[hold.Key()].Status())
	})

	t.Run("should take the rest from available stock", func(t *testing.T) {
		rec := newRecord(t, 5, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		mine, theirs := holdOn(rec), holdOn(rec)
		require.NoError(t, l.Reserve(t.Context(), mine, 1))
		require.NoError(t, l.Reserve(t.Context(), theirs, 1))

		_, err := l.DecrementOnHand(t.Context(), ledger.Decrement{
			StockRecordID: rec.ID(),
			Quantity:      3,
			Reference:     kernel.RefTo(kernel.EntityShipment, kernel.NewUUID()),
			Hold:          &mine,
		})

		require.NoError(t, err)
		assert.Equal(t, 2, rec.OnHand())
		assert.Equal(t, 1, rec.Reserved())
		assert.Equal(t, inventory.Active, repo.reservations[theirs.Key()].Status())
		assert.Equal(t, rec.Reserved(), repo.heldOn(rec.ID()))
	})

	t.Run("should never take units held by another order", func(t *testing.T) {
		rec := newRecord(t, 2, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		mine, theirs := holdOn(rec), holdOn(rec)
		require.NoError(t, l.Reserve(t.Context(), mine, 1))
		require.NoError(t, l.Reserve(t.Context(), theirs, 1))

		_, err := l.DecrementOnHand(t.Context(), ledger.Decrement{
			StockRecordID: rec.ID(),
			Quantity:      2,
			Reference:     kernel.RefTo(kernel.EntityShipment, kernel.NewUUID()),
			Hold:          &mine,
		})

		require.ErrorIs(t, err, errs.ErrInsufficientStock)
		require.NotErrorIs(t, err, errs.ErrReservationDesync)
		assert.Equal(t, 2, rec.OnHand())
		assert.Equal(t, 2, rec.Reserved())
		assert.Empty(t, repo.movements)

		_, err = l.DecrementOnHand(t.Context(), ledger.Decrement{
			StockRecordID: rec.ID(),
			Quantity:      1,
			Reference:     kernel.RefTo(kernel.EntityShipment, kernel.NewUUID()),
			Hold:          &theirs,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Reserved())
		assert.Equal(t, rec.Reserved(), repo.heldOn(rec.ID()))
	})

	t.Run("should refuse more than on hand", func(t *testing.T) {
		rec := newRecord(t, 2, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)

		_, err := l.DecrementOnHand(t.Context(), ledger.Decrement{
			StockRecordID: rec.ID(),
			Quantity:      3,
			Reference:     kernel.RefTo(kernel.EntityShipment, kernel.NewUUID()),
		})

		require.ErrorIs(t, err, errs.ErrInsufficientStock)
		require.NotErrorIs(t, err, errs.ErrReservationDesync)
		assert.Equal(t, 2, rec.OnHand())
		assert.Empty(t, repo.movements)
	})

	t.Run("should raise a desync alert when a held order line finds no stock", func(t *testing.T) {
		rec := newRecord(t, 2, 2, 0)
		repo := newMemoryRepository(rec)
		hold := holdOn(rec)
		reservation, err := inventory.NewReservation(rec.ID(), hold.OrderID, hold.OrderItemID, 3, clock())
		require.NoError(t, err)
		repo.reservations[hold.Key()] = reservation

		core, logs := observer.New(zapcore.ErrorLevel)
		l := ledger.New(repo, zap.New(core)).WithClock(clock)
		before := counterValue(t, metrics.ReservationDesyncs)

		_, err = l.DecrementOnHand(t.Context(), ledger.Decrement{
			StockRecordID: rec.ID(),
			Quantity:      3,
			Reference:     kernel.RefTo(kernel.EntityShipment, kernel.NewUUID()),
			Hold:          &hold,
		})

		require.ErrorIs(t, err, errs.ErrReservationDesync)
		require.ErrorIs(t, err, errs.ErrInsufficientStock)
		assert.Equal(t, 1, logs.FilterMessageSnippet("reservation desync").Len())
		assert.InDelta(t, before+1, counterValue(t, metrics.ReservationDesyncs), 0)
		assert.Equal(t, 2, rec.OnHand())
	})
}

func TestLedger_Restock(t *testing.T) {
	t.Run("should add stock with a return movement", func(t *testing.T) {
		rec := newRecord(t, 7, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		cost := decimal.RequireFromString("4.20")

		m, err := l.Restock(t.Context(), ledger.Receipt{
			StockRecordID: rec.ID(),
			Quantity:      3,
			Type:          inventory.Return,
			Reference:     kernel.RefTo(kernel.EntityReturn, kernel.NewUUID()),
			Batch:         "B-1",
			UnitCost:      &cost,
		})

		require.NoError(t, err)
		assert.Equal(t, 10, rec.OnHand())
		assert.Equal(t, inventory.Return, m.Type())
		assert.Equal(t, "B-1", m.Details().Batch)
	})

	t.Run("should refuse a non receiving movement type", func(t *testing.T) {
		rec := newRecord(t, 7, 0, 0)
		l := newLedger(newMemoryRepository(rec))

		_, err := l.Restock(t.Context(), ledger.Receipt{
			StockRecordID: rec.ID(),
			Quantity:      3,
			Type:          inventory.Outbound,
			Reference:     kernel.RefTo(kernel.EntityReturn, kernel.NewUUID()),
		})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, 7, rec.OnHand())
	})

	t.Run("should create the record of a new location", func(t *testing.T) {
		repo := newMemoryRepository()
		l := newLedger(repo)
		loc := ledger.Location{ProductID: kernel.NewUUID(), WarehouseID: kernel.NewUUID()}

		m, err := l.RestockAt(t.Context(), loc, ledger.Receipt{
			Quantity:  5,
			Type:      inventory.Inbound,
			Reference: kernel.RefTo(kernel.EntitySupplierOrder, kernel.NewUUID()),
		})

		require.NoError(t, err)
		rec := repo.records[m.StockRecordID()]
		require.NotNil(t, rec)
		assert.Equal(t, 5, rec.OnHand())
		assert.Equal(t, 0, rec.InitialQuantity())
	})
}

func TestLedger_Transfer(t *testing.T) {
	t.Run("should move available stock and create the destination", func(t *testing.T) {
		source := newRecord(t, 10, 4, 0)
		repo := newMemoryRepository(source)
		l := newLedger(repo)
		destWarehouse := kernel.NewUUID()

		out, in, err := l.Transfer(t.Context(), ledger.TransferRequest{
			SourceStockRecordID: source.ID(),
			DestWarehouseID:     destWarehouse,
			Quantity:            6,
			Reference:           kernel.RefTo(kernel.EntityTransfer, kernel.NewUUID()),
		})

		require.NoError(t, err)
		assert.Equal(t, 4, source.OnHand())
		assert.Equal(t, 4, source.Reserved())
		dest := repo.records[in.StockRecordID()]
		assert.True(t, dest.WarehouseID().IsEqual(destWarehouse))
		assert.Equal(t, 6, dest.OnHand())
		assert.Equal(t, -6, out.Quantity())
		assert.Equal(t, 6, in.Quantity())
		assert.Equal(t, inventory.Transfer, in.Type())
	})

	t.Run("should never take held stock", func(t *testing.T) {
		source := newRecord(t, 10, 4, 0)
		l := newLedger(newMemoryRepository(source))

		_, _, err := l.Transfer(t.Context(), ledger.TransferRequest{
			SourceStockRecordID: source.ID(),
			DestWarehouseID:     kernel.NewUUID(),
			Quantity:            7,
			Reference:           kernel.RefTo(kernel.EntityTransfer, kernel.NewUUID()),
		})

		require.ErrorIs(t, err, errs.ErrInsufficientStock)
		assert.Equal(t, 10, source.OnHand())
	})

	t.Run("should refuse a transfer within one warehouse", func(t *testing.T) {
		source := newRecord(t, 10, 0, 0)
		l := newLedger(newMemoryRepository(source))

		_, _, err := l.Transfer(t.Context(), ledger.TransferRequest{
			SourceStockRecordID: source.ID(),
			DestWarehouseID:     source.WarehouseID(),
			Quantity:            1,
			Reference:           kernel.RefTo(kernel.EntityTransfer, kernel.NewUUID()),
		})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestLedger_AllocateAcrossWarehouses(t *testing.T) {
	t.Run("should report the whole quantity as deficit without records", func(t *testing.T) {
		l := newLedger(newMemoryRepository())

		allocation, err := l.AllocateAcrossWarehouses(t.Context(), kernel.NewUUID(), nil, 4, nil)

		require.NoError(t, err)
		assert.Equal(t, 4, allocation.Deficit)
		assert.Empty(t, allocation.Lines)
	})

	t.Run("should split across records of the product", func(t *testing.T) {
		first := newRecord(t, 3, 0, 0)
		levels, err := inventory.NewLevels(0, 0, 0)
		require.NoError(t, err)
		second, err := inventory.NewStockRecord(kernel.NewUUID(), first.ProductID(), nil, kernel.NewUUID(), 5, levels)
		require.NoError(t, err)
		l := newLedger(newMemoryRepository(first, second))

		allocation, err := l.AllocateAcrossWarehouses(t.Context(), first.ProductID(), nil, 7, nil)

		require.NoError(t, err)
		require.Len(t, allocation.Lines, 2)
		assert.True(t, allocation.Lines[0].StockRecordID.IsEqual(second.ID()))
		assert.Equal(t, 0, allocation.Deficit)
	})
}

func TestLedger_Adjust(t *testing.T) {
	t.Run("should create a record on a positive adjustment", func(t *testing.T) {
		repo := newMemoryRepository()
		l := newLedger(repo)

		m, err := l.Adjust(t.Context(), ledger.Adjustment{
			Location: ledger.Location{ProductID: kernel.NewUUID(), WarehouseID: kernel.NewUUID()},
			Delta:    4,
			Reason:   "cycle count",
		})

		require.NoError(t, err)
		assert.Equal(t, inventory.Adjustment, m.Type())
		assert.Equal(t, kernel.EntityAdjustment, m.Reference().Type())
		assert.Equal(t, "cycle count", m.Details().Note)
		assert.Equal(t, 4, repo.records[m.StockRecordID()].OnHand())
	})

	t.Run("should refuse a negative adjustment beyond available", func(t *testing.T) {
		rec := newRecord(t, 5, 3, 0)
		l := newLedger(newMemoryRepository(rec))

		_, err := l.Adjust(t.Context(), ledger.Adjustment{
			Location: ledger.Location{ProductID: rec.ProductID(), WarehouseID: rec.WarehouseID()},
			Delta:    -3,
		})

		require.ErrorIs(t, err, errs.ErrInsufficientStock)
		assert.Equal(t, 5, rec.OnHand())
	})

	t.Run("should record disposals", func(t *testing.T) {
		rec := newRecord(t, 5, 0, 0)
		l := newLedger(newMemoryRepository(rec))

		m, err := l.Adjust(t.Context(), ledger.Adjustment{
			Location: ledger.Location{ProductID: rec.ProductID(), WarehouseID: rec.WarehouseID()},
			Delta:    -2,
			Dispose:  true,
		})

		require.NoError(t, err)
		assert.Equal(t, inventory.Disposal, m.Type())
		assert.Equal(t, 3, rec.OnHand())

		_, err = l.Adjust(t.Context(), ledger.Adjustment{
			Location: ledger.Location{ProductID: rec.ProductID(), WarehouseID: rec.WarehouseID()},
			Delta:    2,
			Dispose:  true,
		})
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestLedger_PendingMovements(t *testing.T) {
	schedule := func(t *testing.T) (*memoryRepository, *ledger.Ledger, *inventory.StockRecord, *inventory.Movement) {
		rec := newRecord(t, 2, 0, 0)
		repo := newMemoryRepository(rec)
		l := newLedger(repo)
		m, err := l.ScheduleInbound(t.Context(),
			ledger.Location{ProductID: rec.ProductID(), WarehouseID: rec.WarehouseID()},
			ledger.Receipt{Quantity: 8, Reference: kernel.RefTo(kernel.EntitySupplierOrder, kernel.NewUUID())})
		require.NoError(t, err)
		return repo, l, rec, m
	}

	t.Run("should not touch stock until confirmed", func(t *testing.T) {
		repo, l, rec, m := schedule(t)
		assert.Equal(t, inventory.Pending, m.Status())
		assert.Equal(t, 2, rec.OnHand())

		confirmed, err := l.ConfirmMovement(t.Context(), m.ID())

		require.NoError(t, err)
		assert.Equal(t, inventory.Completed, confirmed.Status())
		require.NotNil(t, confirmed.CompletedAt())
		assert.Equal(t, 10, rec.OnHand())
		assert.Equal(t, rec.OnHand()-rec.InitialQuantity(), repo.completedSum(rec.ID()))
	})

	t.Run("should refuse confirming twice", func(t *testing.T) {
		_, l, rec, m := schedule(t)
		_, err := l.ConfirmMovement(t.Context(), m.ID())
		require.NoError(t, err)

		_, err = l.ConfirmMovement(t.Context(), m.ID())

		require.ErrorIs(t, err, inventory.ErrInvalidMovementTransition)
		require.ErrorIs(t, err, errs.ErrIllegalTransition)
		assert.Equal(t, 10, rec.OnHand())
	})

	t.Run("should cancel without touching stock", func(t *testing.T) {
		_, l, rec, m := schedule(t)

		cancelled, err := l.CancelMovement(t.Context(), m.ID())

		require.NoError(t, err)
		assert.Equal(t, inventory.Cancelled, cancelled.Status())
		assert.Nil(t, cancelled.CompletedAt())
		assert.Equal(t, 2, rec.OnHand())

		_, err = l.ConfirmMovement(t.Context(), m.ID())
		require.ErrorIs(t, err, inventory.ErrInvalidMovementTransition)
	})
}

// TestLedger_Conservation drives random operation sequences, with several
// order lines competing for the same records, and checks the ledger
// invariants after every step.
func TestLedger_Conservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(20260301, 42))

	for run := 0; run < 20; run++ {
		records := []*inventory.StockRecord{
			newRecord(t, rng.IntN(20), 0, 0),
			newRecord(t, rng.IntN(20), 0, 0),
		}
		repo := newMemoryRepository(records...)
		l := newLedger(repo)

		orders := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()}
		holds := make([]ledger.Hold, 0)
		pickHold := func(rec *inventory.StockRecord) *ledger.Hold {
			var candidates []ledger.Hold
			for _, h := range holds {
				if h.StockRecordID.IsEqual(rec.ID()) {
					candidates = append(candidates, h)
				}
			}
			if len(candidates) == 0 {
				return nil
			}
			h := candidates[rng.IntN(len(candidates))]
			return &h
		}

		for step := 0; step < 300; step++ {
			rec := records[rng.IntN(len(records))]
			qty := rng.IntN(6) + 1
			ref := kernel.RefTo(kernel.EntityAdjustment, kernel.NewUUID())

			switch rng.IntN(9) {
			case 0:
				hold := ledger.Hold{
					OrderID:       orders[rng.IntN(len(orders))],
					OrderItemID:   kernel.NewUUID(),
					StockRecordID: rec.ID(),
				}
				if l.Reserve(t.Context(), hold, qty) == nil {
					holds = append(holds, hold)
				}
			case 1:
				if hold := pickHold(rec); hold != nil {
					_ = l.Reserve(t.Context(), *hold, qty)
				}
			case 2:
				if len(holds) > 0 {
					hold := holds[rng.IntN(len(holds))]
					_, _ = l.ReleaseItem(t.Context(), hold.OrderID, hold.OrderItemID)
				}
			case 3:
				_, _ = l.DecrementOnHand(t.Context(), ledger.Decrement{
					StockRecordID: rec.ID(), Quantity: qty, Reference: ref, Hold: pickHold(rec),
				})
			case 4:
				_, _ = l.Restock(t.Context(), ledger.Receipt{StockRecordID: rec.ID(), Quantity: qty, Type: inventory.Inbound, Reference: ref})
			case 5:
				delta := qty
				if rng.IntN(2) == 0 {
					delta = -qty
				}
				_, _ = l.Adjust(t.Context(), ledger.Adjustment{
					Location: ledger.Location{ProductID: rec.ProductID(), WarehouseID: rec.WarehouseID()},
					Delta:    delta,
				})
			case 6:
				other := records[0]
				if other.ID().IsEqual(rec.ID()) {
					other = records[1]
				}
				_, _ = l.Transfer(t.Context(), ledger.TransferRequest{
					SourceStockRecordID: rec.ID(),
					DestWarehouseID:     other.WarehouseID(),
					Quantity:            qty,
					Reference:           ref,
				})
			case 7:
				if hold := pickHold(rec); hold != nil {
					_, _ = l.Unreserve(t.Context(), *hold, qty)
				}
			case 8:
				_, _ = l.ReleaseOrder(t.Context(), orders[rng.IntN(len(orders))])
			}

			for _, stored := range repo.records {
				require.GreaterOrEqual(t, stored.OnHand(), 0)
				require.GreaterOrEqual(t, stored.Reserved(), 0)
				require.LessOrEqual(t, stored.Reserved(), stored.OnHand())
				require.Equal(t, stored.OnHand()-stored.InitialQuantity(), repo.completedSum(stored.ID()),
					"run %d step %d: conservation broken for %s", run, step, stored.ID())
				require.Equal(t, stored.Reserved(), repo.heldOn(stored.ID()),
					"run %d step %d: reserved drifted from active holds on %s", run, step, stored.ID())
			}
		}
	}
}

package services_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warehouse(t *testing.T, s string) kernel.UUID {
	t.Helper()
	id, err := kernel.UUIDFromString(s)
	require.NoError(t, err)
	return id
}

func record(t *testing.T, productID, warehouseID kernel.UUID, onHand, reserved int) *inventory.StockRecord {
	t.Helper()
	levels, err := inventory.NewLevels(0, 0, 0)
	require.NoError(t, err)
	rec, err := inventory.RestoreStockRecord(kernel.NewUUID(), productID, nil, warehouseID, onHand, reserved, 0, levels, 1)
	require.NoError(t, err)
	return rec
}

func TestStockAllocator_Allocate(t *testing.T) {
	productID := kernel.NewUUID()
	whA := warehouse(t, "00000000-0000-0000-0000-00000000000a")
	whB := warehouse(t, "00000000-0000-0000-0000-00000000000b")
	whC := warehouse(t, "00000000-0000-0000-0000-00000000000c")
	allocator := services.NewStockAllocator()

	t.Run("should draw from the largest on-hand first", func(t *testing.T) {
		records := []*inventory.StockRecord{
			record(t, productID, whA, 3, 0),
			record(t, productID, whB, 10, 0),
			record(t, productID, whC, 5, 0),
		}

		allocation, err := allocator.Allocate(records, 12, nil)

		require.NoError(t, err)
		require.Len(t, allocation.Lines, 2)
		assert.True(t, allocation.Lines[0].WarehouseID.IsEqual(whB))
		assert.Equal(t, 10, allocation.Lines[0].Quantity)
		assert.True(t, allocation.Lines[1].WarehouseID.IsEqual(whC))
		assert.Equal(t, 2, allocation.Lines[1].Quantity)
		assert.True(t, allocation.IsComplete())
		assert.Equal(t, 12, allocation.Allocated())
	})

	t.Run("should break ties by warehouse id", func(t *testing.T) {
		records := []*inventory.StockRecord{
			record(t, productID, whC, 4, 0),
			record(t, productID, whA, 4, 0),
		}

		allocation, err := allocator.Allocate(records, 1, nil)

		require.NoError(t, err)
		require.Len(t, allocation.Lines, 1)
		assert.True(t, allocation.Lines[0].WarehouseID.IsEqual(whA))
	})

	t.Run("should prefer the requested warehouse", func(t *testing.T) {
		records := []*inventory.StockRecord{
			record(t, productID, whA, 1, 0),
			record(t, productID, whB, 10, 0),
		}

		allocation, err := allocator.Allocate(records, 3, &whA)

		require.NoError(t, err)
		require.Len(t, allocation.Lines, 2)
		assert.True(t, allocation.Lines[0].WarehouseID.IsEqual(whA))
		assert.Equal(t, 1, allocation.Lines[0].Quantity)
		assert.Equal(t, 2, allocation.Lines[1].Quantity)
	})

	t.Run("should skip held stock and report the deficit", func(t *testing.T) {
		records := []*inventory.StockRecord{
			record(t, productID, whA, 5, 5),
			record(t, productID, whB, 2, 0),
		}

		allocation, err := allocator.Allocate(records, 4, nil)

		require.NoError(t, err)
		require.Len(t, allocation.Lines, 1)
		assert.Equal(t, 2, allocation.Deficit)
		assert.False(t, allocation.IsComplete())
	})

	t.Run("should refuse empty candidates and bad quantities", func(t *testing.T) {
		_, err := allocator.Allocate(nil, 1, nil)
		require.ErrorIs(t, err, services.ErrNoStockRecords)

		_, err = allocator.Allocate([]*inventory.StockRecord{record(t, productID, whA, 1, 0)}, 0, nil)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

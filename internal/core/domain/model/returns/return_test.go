package returns_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/returns"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

func newLine(t *testing.T, qty int, price, tax string) *order.Item {
	t.Helper()
	item, err := order.NewItem(kernel.NewUUID(), order.Product{ProductID: kernel.NewUUID(), SKU: "SKU"}, nil, qty,
		decimal.RequireFromString(price), decimal.RequireFromString(tax), decimal.Zero)
	require.NoError(t, err)
	return item
}

func newReturn(t *testing.T, typ returns.Type) *returns.Return {
	t.Helper()
	item, err := returns.NewItem(newLine(t, 2, "10", "2"), 2)
	require.NoError(t, err)
	r, err := returns.NewReturn(kernel.NewUUID(), "RMA-20260305-QWERTY", kernel.NewUUID(), typ, "damaged",
		[]returns.Item{item}, now)
	require.NoError(t, err)
	return r
}

func inspected(t *testing.T, typ returns.Type) *returns.Return {
	t.Helper()
	r := newReturn(t, typ)
	require.NoError(t, r.Approve(now))
	require.NoError(t, r.Receive(now))
	require.NoError(t, r.Inspect(decimal.NewFromInt(1), decimal.NewFromInt(2), now))
	return r
}

func TestNewItem(t *testing.T) {
	t.Run("should price the full line", func(t *testing.T) {
		item, err := returns.NewItem(newLine(t, 2, "10", "2"), 2)

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(22).Equal(item.Amount))
	})

	t.Run("should prorate a partial quantity", func(t *testing.T) {
		item, err := returns.NewItem(newLine(t, 3, "10", "3"), 1)

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(11).Equal(item.Amount))
	})

	t.Run("should refuse more than the line quantity", func(t *testing.T) {
		_, err := returns.NewItem(newLine(t, 1, "10", "0"), 2)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestReturn_Lifecycle(t *testing.T) {
	t.Run("should move strictly forward", func(t *testing.T) {
		r := newReturn(t, returns.Refund)

		require.ErrorIs(t, r.Receive(now), errs.ErrIllegalTransition)
		require.NoError(t, r.Approve(now))
		require.ErrorIs(t, r.Inspect(decimal.Zero, decimal.Zero, now), errs.ErrIllegalTransition)
		require.NoError(t, r.Receive(now))
		require.NoError(t, r.Inspect(decimal.NewFromInt(5), decimal.NewFromInt(5), now))

		assert.Equal(t, returns.Inspected, r.Status())
		assert.True(t, decimal.NewFromInt(5).Equal(r.RestockingFee()))
	})

	t.Run("should reject from any open status", func(t *testing.T) {
		for _, steps := range []int{0, 1, 2, 3} {
			r := newReturn(t, returns.Refund)
			if steps > 0 {
				require.NoError(t, r.Approve(now))
			}
			if steps > 1 {
				require.NoError(t, r.Receive(now))
			}
			if steps > 2 {
				require.NoError(t, r.Inspect(decimal.Zero, decimal.Zero, now))
			}

			require.NoError(t, r.Reject("not ours", now))
			assert.Equal(t, returns.Rejected, r.Status())
			assert.Equal(t, "not ours", r.Reason())
		}
	})

	t.Run("should complete only after restock and refund", func(t *testing.T) {
		r := inspected(t, returns.Refund)
		require.NoError(t, r.SetRefundAmount(decimal.NewFromInt(19)))
		assert.True(t, r.NeedsGatewayRefund())

		require.NoError(t, r.MarkRestocked(now))
		require.ErrorIs(t, r.Complete(now), errs.ErrIllegalTransition)
		assert.True(t, r.IsAwaitingCompletion())

		require.NoError(t, r.MarkRefunded("re_123", now))
		require.NoError(t, r.Complete(now))

		assert.Equal(t, returns.Completed, r.Status())
		assert.Equal(t, "re_123", r.RefundReference())
		require.NotNil(t, r.CompletedAt())
		assert.False(t, r.IsAwaitingCompletion())
		require.ErrorIs(t, r.Reject("late", now), errs.ErrIllegalTransition)
	})

	t.Run("should not need the gateway for store credit", func(t *testing.T) {
		r := inspected(t, returns.StoreCredit)
		require.NoError(t, r.SetRefundAmount(decimal.NewFromInt(19)))
		assert.False(t, r.NeedsGatewayRefund())
	})

	t.Run("should freeze the refund amount once refunded", func(t *testing.T) {
		r := inspected(t, returns.Refund)
		require.NoError(t, r.MarkRefunded("re_1", now))

		require.ErrorIs(t, r.SetRefundAmount(decimal.NewFromInt(1)), errs.ErrValueIsInvalid)
	})

	t.Run("should record one event per step", func(t *testing.T) {
		r := inspected(t, returns.Refund)

		events := r.PullEvents()

		require.Len(t, events, 4)
		assert.Equal(t, "return.requested", events[0].Name())
		assert.Equal(t, "return.inspected", events[3].Name())
	})
}

func TestNewReturn_Validation(t *testing.T) {
	t.Run("should refuse duplicate lines", func(t *testing.T) {
		item, err := returns.NewItem(newLine(t, 1, "10", "0"), 1)
		require.NoError(t, err)

		_, err = returns.NewReturn(kernel.NewUUID(), "RMA-1", kernel.NewUUID(), returns.Refund, "",
			[]returns.Item{item, item}, now)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should require a known type", func(t *testing.T) {
		item, err := returns.NewItem(newLine(t, 1, "10", "0"), 1)
		require.NoError(t, err)

		_, err = returns.NewReturn(kernel.NewUUID(), "RMA-1", kernel.NewUUID(), returns.UnknownType, "",
			[]returns.Item{item}, now)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

package order_test

import (
	"fmt"
	"testing"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Validate(t *testing.T) {
	t.Run("should validate every lifecycle status", func(t *testing.T) {
		statuses := []order.Status{
			order.Pending, order.Processing, order.Shipped, order.Delivered,
			order.Returned, order.Refunded, order.Completed, order.Cancelled,
		}
		for _, status := range statuses {
			t.Run(fmt.Sprintf("should validate %s status", status), func(t *testing.T) {
				require.NoError(t, status.Validate())
			})
		}
	})

	t.Run("should reject Unknown and out of range values", func(t *testing.T) {
		require.ErrorIs(t, order.Unknown.Validate(), errs.ErrValueIsInvalid)
		require.ErrorIs(t, order.Status(99).Validate(), errs.ErrValueIsInvalid)
	})
}

func TestStatus_ParseStatus(t *testing.T) {
	t.Run("should parse wire names", func(t *testing.T) {
		status, err := order.ParseStatus("delivered")

		require.NoError(t, err)
		assert.Equal(t, order.Delivered, status)
	})

	t.Run("should reject unknown names", func(t *testing.T) {
		_, err := order.ParseStatus("unknown")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		_, err = order.ParseStatus("lost")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestStatus_TransitionTo(t *testing.T) {
	legal := map[order.Status][]order.Status{
		order.Pending:    {order.Processing, order.Cancelled},
		order.Processing: {order.Shipped, order.Cancelled},
		order.Shipped:    {order.Delivered, order.Returned},
		order.Delivered:  {order.Returned, order.Completed},
		order.Returned:   {order.Refunded, order.Completed},
		order.Refunded:   {order.Completed},
	}
	all := []order.Status{
		order.Pending, order.Processing, order.Shipped, order.Delivered,
		order.Returned, order.Refunded, order.Completed, order.Cancelled,
	}

	for _, from := range all {
		for _, to := range all {
			allowed := false
			for _, next := range legal[from] {
				if next == to {
					allowed = true
				}
			}

			if allowed {
				t.Run(fmt.Sprintf("should allow %s to %s", from, to), func(t *testing.T) {
					next, err := from.TransitionTo(to)
					require.NoError(t, err)
					assert.Equal(t, to, next)
				})
				continue
			}

			t.Run(fmt.Sprintf("should reject %s to %s", from, to), func(t *testing.T) {
				next, err := from.TransitionTo(to)

				require.ErrorIs(t, err, errs.ErrIllegalTransition)
				assert.Equal(t, order.Unknown, next)

				var transitionErr *errs.IllegalTransitionError
				require.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, from.String(), transitionErr.From)
				assert.Equal(t, to.String(), transitionErr.To)
			})
		}
	}

	t.Run("should treat cancelled and completed as terminal", func(t *testing.T) {
		assert.True(t, order.Cancelled.IsTerminal())
		assert.True(t, order.Completed.IsTerminal())
		assert.False(t, order.Pending.IsTerminal())
	})
}

func TestStatus_IsMutable(t *testing.T) {
	assert.True(t, order.Pending.IsMutable())
	assert.True(t, order.Processing.IsMutable())
	assert.False(t, order.Shipped.IsMutable())
	assert.False(t, order.Cancelled.IsMutable())
}

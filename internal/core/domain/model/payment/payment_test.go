package payment_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func captured(t *testing.T, amount string) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(kernel.NewUUID(), kernel.NewUUID(), decimal.RequireFromString(amount), "USD", "pm_card", now)
	require.NoError(t, err)
	require.NoError(t, p.RecordAuthorization(payment.GatewayResult{Success: true, Reference: "auth_1"}, "authorize:order:1", now))
	require.NoError(t, p.RecordCapture(payment.GatewayResult{Success: true, Reference: "cap_1"}, "capture:order:1", now))
	return p
}

func TestPayment_Flow(t *testing.T) {
	t.Run("should authorize and capture", func(t *testing.T) {
		p := captured(t, "32.50")

		assert.Equal(t, payment.Completed, p.Status())
		assert.True(t, decimal.RequireFromString("32.5").Equal(p.CapturedAmount()))
		assert.Len(t, p.Transactions(), 2)

		tx, ok := p.SucceededTransaction("capture:order:1")
		require.True(t, ok)
		assert.Equal(t, "cap_1", tx.GatewayReference)
	})

	t.Run("should fail on a declined authorization and allow a retry", func(t *testing.T) {
		p, err := payment.NewPayment(kernel.NewUUID(), kernel.NewUUID(), decimal.NewFromInt(10), "USD", "pm_card", now)
		require.NoError(t, err)

		require.NoError(t, p.RecordAuthorization(payment.GatewayResult{Message: "declined"}, "authorize:1", now))
		assert.Equal(t, payment.Failed, p.Status())
		_, ok := p.SucceededTransaction("authorize:1")
		assert.False(t, ok)

		require.NoError(t, p.RecordAuthorization(payment.GatewayResult{Success: true}, "authorize:1", now))
		assert.Equal(t, payment.Processing, p.Status())
	})

	t.Run("should refuse capture before authorization", func(t *testing.T) {
		p, err := payment.NewPayment(kernel.NewUUID(), kernel.NewUUID(), decimal.NewFromInt(10), "USD", "pm_card", now)
		require.NoError(t, err)

		require.ErrorIs(t, p.RecordCapture(payment.GatewayResult{Success: true}, "capture:1", now), errs.ErrIllegalTransition)
	})

	t.Run("should void an authorization", func(t *testing.T) {
		p, err := payment.NewPayment(kernel.NewUUID(), kernel.NewUUID(), decimal.NewFromInt(10), "USD", "pm_card", now)
		require.NoError(t, err)
		require.NoError(t, p.RecordAuthorization(payment.GatewayResult{Success: true}, "authorize:1", now))

		require.NoError(t, p.RecordVoid(payment.GatewayResult{Success: true}, "void:1", now))

		assert.Equal(t, payment.Cancelled, p.Status())
	})
}

func TestPayment_Refund(t *testing.T) {
	t.Run("should cap refunds at the refundable amount", func(t *testing.T) {
		p := captured(t, "32.50")
		require.NoError(t, p.RecordRefund(decimal.NewFromInt(20), payment.GatewayResult{Success: true}, "refund:1", now))

		capped := p.CapRefund(decimal.NewFromInt(20))

		assert.True(t, decimal.RequireFromString("12.5").Equal(capped))
		assert.Equal(t, payment.Completed, p.Status())
	})

	t.Run("should become refunded when everything went back", func(t *testing.T) {
		p := captured(t, "32.50")

		require.NoError(t, p.RecordRefund(decimal.RequireFromString("32.50"), payment.GatewayResult{Success: true}, "refund:1", now))

		assert.Equal(t, payment.Refunded, p.Status())
		assert.True(t, p.IsFullyRefunded())
	})

	t.Run("should refuse refunding more than captured", func(t *testing.T) {
		p := captured(t, "10")

		err := p.RecordRefund(decimal.NewFromInt(11), payment.GatewayResult{Success: true}, "refund:1", now)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.True(t, p.RefundedAmount().IsZero())
	})

	t.Run("should keep amounts on a failed refund", func(t *testing.T) {
		p := captured(t, "10")

		require.NoError(t, p.RecordRefund(decimal.NewFromInt(5), payment.GatewayResult{Message: "timeout"}, "refund:1", now))

		assert.True(t, p.RefundedAmount().IsZero())
		assert.Len(t, p.Transactions(), 3)
	})
}

func TestIdempotencyKey(t *testing.T) {
	id := kernel.NewUUID()
	key := payment.IdempotencyKey(payment.Refund, kernel.RefTo(kernel.EntityReturn, id))
	assert.Equal(t, "refund:return:"+id.String(), key)
}

package carrier_test

import (
	"context"
	"testing"

	"fulfillment/internal/adapters/out/carrier"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalIssuer(t *testing.T) {
	issue := carrier.LocalIssuer("ups", " DHL ")

	number, err := issue(context.Background(), "DHL", "SHP-20260301-0001")
	require.NoError(t, err)
	assert.Equal(t, "DHL-SHP-20260301-0001", number)

	_, err = issue(context.Background(), "fedex", "SHP-1")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = issue(context.Background(), "ups", "")
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestLocalIssuer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := carrier.LocalIssuer("ups")(ctx, "ups", "SHP-1")

	require.ErrorIs(t, err, context.Canceled)
}

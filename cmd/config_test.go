package cmd

import (
	"testing"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092")
	t.Setenv("TAX_RATE", "0.0825")
	t.Setenv("PAYMENT_GATEWAY_TIMEOUT", "750ms")

	config, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "9090", config.HTTPPort)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, config.KafkaBrokers)
	assert.Equal(t, "0.0825", config.TaxRate.String())
	assert.Equal(t, 750*time.Millisecond, config.PaymentGatewayTimeout)
	assert.Equal(t, 3, config.PaymentGatewayMaxAttempts)
	assert.Equal(t, "0 */5 * * * *", config.ReturnRetrySchedule)
	assert.Contains(t, config.DSN(), "dbname=fulfillment")
}

func TestLoadConfig_ReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("TAX_RATE", "eight percent")
	t.Setenv("CURRENCY_CACHE_TTL", "soon")
	t.Setenv("PAYMENT_GATEWAY_MAX_ATTEMPTS", "0")

	_, err := LoadConfig()

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	assert.Contains(t, err.Error(), "TAX_RATE")
	assert.Contains(t, err.Error(), "CURRENCY_CACHE_TTL")
}

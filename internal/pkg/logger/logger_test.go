package logger_test

import (
	"testing"

	"fulfillment/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewZapLogger(t *testing.T) {
	t.Run("should honour the configured level", func(t *testing.T) {
		log := logger.NewZapLogger(&logger.ZapLoggerConfig{Encoding: "json", Level: "warn"})

		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("should fall back to info on an unknown level", func(t *testing.T) {
		log := logger.NewZapLogger(&logger.ZapLoggerConfig{IsDevelopment: true, Encoding: "console", Level: "loud"})

		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})
}

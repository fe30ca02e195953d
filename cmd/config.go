package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CurrencyCacheTTL time.Duration

	// KafkaBrokers may be empty, in which case domain events are dropped.
	KafkaBrokers     []string
	KafkaEventsTopic string

	PaymentGatewayURL         string
	PaymentGatewayAPIKey      string
	PaymentGatewayTimeout     time.Duration
	PaymentGatewayMaxAttempts int
	PaymentGatewayBackoff     time.Duration

	DefaultCurrency  string
	TaxRate          decimal.Decimal
	TaxExemptDigital bool
	FlatShipping     decimal.Decimal
	FreeShippingOver decimal.Decimal
	// DiscountCodes uses the CODE=10%,CODE2=5 form.
	DiscountCodes string
	Carriers      []string

	OTLPEndpoint string
	OTLPInsecure bool

	ReturnRetrySchedule string
	ReturnRetryBatch    int
	LowStockSchedule    string

	LogLevel       string
	LogEncoding    string
	LogDevelopment bool
}

// LoadConfig reads the configuration from the environment. Unset variables
// take their defaults; malformed values are reported together.
func LoadConfig() (Config, error) {
	var parseErrs []error
	dec := func(key, fallback string) decimal.Decimal {
		d, err := decimal.NewFromString(getEnv(key, fallback))
		if err != nil {
			parseErrs = append(parseErrs, errs.NewValueIsInvalidErrorWithCause(key, err))
		}
		return d
	}
	dur := func(key string, fallback time.Duration) time.Duration {
		raw, ok := os.LookupEnv(key)
		if !ok {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			parseErrs = append(parseErrs, errs.NewValueIsInvalidErrorWithCause(key, err))
		}
		return d
	}

	config := Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "fulfillment"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		CurrencyCacheTTL: dur("CURRENCY_CACHE_TTL", 10*time.Minute),

		KafkaBrokers:     getEnvSlice("KAFKA_BROKERS", nil),
		KafkaEventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "fulfillment.events"),

		PaymentGatewayURL:         getEnv("PAYMENT_GATEWAY_URL", "http://localhost:8081"),
		PaymentGatewayAPIKey:      getEnv("PAYMENT_GATEWAY_API_KEY", ""),
		PaymentGatewayTimeout:     dur("PAYMENT_GATEWAY_TIMEOUT", 5*time.Second),
		PaymentGatewayMaxAttempts: getEnvInt("PAYMENT_GATEWAY_MAX_ATTEMPTS", 3),
		PaymentGatewayBackoff:     dur("PAYMENT_GATEWAY_BACKOFF", 200*time.Millisecond),

		DefaultCurrency:  strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		TaxRate:          dec("TAX_RATE", "0"),
		TaxExemptDigital: getEnvBool("TAX_EXEMPT_DIGITAL", false),
		FlatShipping:     dec("FLAT_SHIPPING", "0"),
		FreeShippingOver: dec("FREE_SHIPPING_OVER", "0"),
		DiscountCodes:    getEnv("DISCOUNT_CODES", ""),
		Carriers:         getEnvSlice("CARRIERS", []string{"ups", "fedex", "dhl"}),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		ReturnRetrySchedule: getEnv("RETURN_RETRY_SCHEDULE", "0 */5 * * * *"),
		ReturnRetryBatch:    getEnvInt("RETURN_RETRY_BATCH", 50),
		LowStockSchedule:    getEnv("LOW_STOCK_SCHEDULE", "0 0 * * * *"),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogEncoding:    getEnv("LOG_ENCODING", "json"),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),
	}

	if config.PaymentGatewayMaxAttempts < 1 {
		parseErrs = append(parseErrs, errs.NewValueIsOutOfRangeError(
			"PAYMENT_GATEWAY_MAX_ATTEMPTS", config.PaymentGatewayMaxAttempts, 1, 10))
	}
	if err := errors.Join(parseErrs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// DSN is the libpq style connection string for the GORM postgres driver.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

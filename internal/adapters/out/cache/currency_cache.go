// Package cache keeps hot settings in Redis in front of the settings table.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCurrencyKey is both the settings key and the Redis key.
const DefaultCurrencyKey = "default_currency"

type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, config Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// CurrencyCache is a read-through cache of the default currency. A write
// goes to the settings table first and then drops the cached value. Redis
// outages degrade to reading the table.
type CurrencyCache struct {
	client   redis.Cmdable
	settings ports.SettingsRepository
	fallback string
	ttl      time.Duration
	log      *zap.Logger
}

// NewCurrencyCache builds the cache. fallback is used while the setting has
// never been written.
func NewCurrencyCache(
	client redis.Cmdable,
	settings ports.SettingsRepository,
	fallback string,
	ttl time.Duration,
	log *zap.Logger,
) (*CurrencyCache, error) {
	if err := kernel.ValidateCurrency(fallback); err != nil {
		return nil, err
	}
	return &CurrencyCache{
		client:   client,
		settings: settings,
		fallback: fallback,
		ttl:      ttl,
		log:      log.With(zap.String("component", "currency_cache")),
	}, nil
}

func (c *CurrencyCache) DefaultCurrency(ctx context.Context) (string, error) {
	cached, err := c.client.Get(ctx, DefaultCurrencyKey).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		c.log.Warn("redis read failed, reading settings", zap.Error(err))
	}

	currency, err := c.settings.Get(ctx, DefaultCurrencyKey)
	if errors.Is(err, errs.ErrObjectNotFound) {
		currency, err = c.fallback, nil
	}
	if err != nil {
		return "", err
	}

	if setErr := c.client.Set(ctx, DefaultCurrencyKey, currency, c.ttl).Err(); setErr != nil {
		c.log.Warn("redis write failed", zap.Error(setErr))
	}
	return currency, nil
}

// SetDefaultCurrency stores an ISO 4217 code and invalidates the cache.
func (c *CurrencyCache) SetDefaultCurrency(ctx context.Context, currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if err := kernel.ValidateCurrency(currency); err != nil {
		return err
	}
	if err := c.settings.Set(ctx, DefaultCurrencyKey, currency); err != nil {
		return err
	}
	if err := c.client.Del(ctx, DefaultCurrencyKey).Err(); err != nil {
		c.log.Error("cached currency not invalidated", zap.Error(err))
		return err
	}
	return nil
}

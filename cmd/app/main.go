package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment/cmd"
	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/cache"
	"fulfillment/internal/adapters/out/eventbus"
	pgadapter "fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	serviceName     = "fulfillment"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// A missing .env is fine; the environment may be set by the deployment.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	zapLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: configs.LogDevelopment,
		Encoding:      configs.LogEncoding,
		Level:         configs.LogLevel,
	})
	defer func() { _ = zapLogger.Sync() }()

	if err = run(configs, zapLogger); err != nil {
		zapLogger.Fatal("service stopped with error", zap.Error(err))
	}
}

func run(configs cmd.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Endpoint:       configs.OTLPEndpoint,
		Insecure:       configs.OTLPInsecure,
		ExportTimeout:  5 * time.Second,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			zapLogger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	gormDB, err := gorm.Open(postgres.Open(configs.DSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	if err = pgadapter.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	redisClient, err := cache.NewRedisClient(ctx, cache.Config{
		Addr:     configs.RedisAddr,
		Password: configs.RedisPassword,
		DB:       configs.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	var publisher ports.EventPublisher
	if len(configs.KafkaBrokers) > 0 {
		kafkaPublisher := eventbus.NewPublisher(eventbus.Config{
			Brokers: configs.KafkaBrokers,
			Topic:   configs.KafkaEventsTopic,
		}, zapLogger)
		defer func() { _ = kafkaPublisher.Close() }()
		publisher = kafkaPublisher
	} else {
		zapLogger.Warn("no Kafka brokers configured, domain events will be dropped")
	}

	app, err := cmd.NewCompositionRoot(configs, gormDB, redisClient, publisher, zapLogger)
	if err != nil {
		return err
	}

	jobManager := app.Jobs()
	if err = jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	return startWebServer(ctx, app, configs.HTTPPort, zapLogger)
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string, zapLogger *zap.Logger) error {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	httpin.NewServer(app.HTTPHandlers(), zapLogger).Register(e)

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("http server listening", zap.String("port", port))
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// Package postgres provides the GORM implementation of the unit of work that
// backs every fulfillment operation.
//
// A unit of work is one database transaction. Repositories obtained from it
// run inside that transaction once Begin was called, and register every
// aggregate they write. After a successful Commit the domain events recorded
// by those aggregates are handed to the event publisher; a failed publish is
// logged and never undoes the commit.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	rec, err := uow.StockRepository().GetForUpdate(ctx, id)
//	if err != nil {
//	    return err
//	}
//	// mutate rec ...
//	if err = uow.StockRepository().Update(ctx, rec); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
//
// Concurrency:
//   - Each UnitOfWork instance owns one transaction; never share it between goroutines
//   - Stock records are locked with SELECT ... FOR UPDATE in ascending id order
package postgres

import (
	"context"

	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/paymentrepo"
	"fulfillment/internal/adapters/out/postgres/returnrepo"
	"fulfillment/internal/adapters/out/postgres/shipmentrepo"
	"fulfillment/internal/adapters/out/postgres/stockrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// trackedAggregate is an aggregate written during the unit of work.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// eventSource is implemented by aggregates that record domain events.
type eventSource interface {
	PullEvents() []kernel.Event
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection
// pool and one event publisher.
type GormUnitOfWorkFactory struct {
	db        *gorm.DB
	publisher ports.EventPublisher
	log       *zap.Logger
}

// NewGormUnitOfWorkFactory creates the factory. publisher may be nil, in
// which case recorded events are dropped after commit.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    return err
//	}
//	factory := postgres.NewGormUnitOfWorkFactory(db, publisher, logger)
func NewGormUnitOfWorkFactory(db *gorm.DB, publisher ports.EventPublisher, log *zap.Logger) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{
		db:        db,
		publisher: publisher,
		log:       log.With(zap.String("component", "unit_of_work")),
	}
}

// Create produces a fresh unit of work with its own transaction state.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		publisher:         f.publisher,
		log:               f.log,
		trackedAggregates: make([]trackedAggregate, 0),
		versions:          make(map[kernel.UUID]int),
	}
}

// GormUnitOfWork coordinates one database transaction and tracks the
// aggregates written in it.
type GormUnitOfWork struct {
	db        *gorm.DB
	tx        *gorm.DB
	publisher ports.EventPublisher
	log       *zap.Logger

	trackedAggregates []trackedAggregate
	versions          map[kernel.UUID]int
}

// Begin opens the transaction. Calling it again while a transaction is open
// is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit makes the transaction permanent and then publishes the events of
// every tracked aggregate.
//
// Returns gorm.ErrInvalidTransaction when no transaction is open.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		uow.reset()
		return err
	}

	uow.publishEvents(ctx)
	return nil
}

// Rollback discards the transaction and every tracked aggregate.
//
// Returns gorm.ErrInvalidTransaction when no transaction is open, which makes
// a deferred Rollback after Commit harmless.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.reset()
	return err
}

func (uow *GormUnitOfWork) StockRepository() ports.StockRepository {
	return stockrepo.NewGormStockRepository(uow.conn(), uow, uow)
}

func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) ShipmentRepository() ports.ShipmentRepository {
	return shipmentrepo.NewGormShipmentRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) ReturnRepository() ports.ReturnRepository {
	return returnrepo.NewGormReturnRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) PaymentRepository() ports.PaymentRepository {
	return paymentrepo.NewGormPaymentRepository(uow.conn(), uow)
}

// TrackAggregate registers an aggregate written in this unit of work.
// Repositories call it after every successful Add or Update.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

// LoadedVersion returns the version a stock record had when this unit of
// work first read it.
func (uow *GormUnitOfWork) LoadedVersion(id kernel.UUID) (int, bool) {
	v, ok := uow.versions[id]
	return v, ok
}

// RememberVersion records the version now stored for a stock record.
func (uow *GormUnitOfWork) RememberVersion(id kernel.UUID, version int) {
	uow.versions[id] = version
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

func (uow *GormUnitOfWork) publishEvents(ctx context.Context) {
	tracked := uow.trackedAggregates
	uow.reset()

	events := make([]kernel.Event, 0)
	for _, t := range tracked {
		if source, ok := t.Aggregate.(eventSource); ok {
			events = append(events, source.PullEvents()...)
		}
	}
	if len(events) == 0 || uow.publisher == nil {
		return
	}

	if err := uow.publisher.Publish(ctx, events...); err != nil {
		metrics.EventsPublished.WithLabelValues(metrics.Outcome(err)).Add(float64(len(events)))
		uow.log.Warn("publishing domain events failed", zap.Int("events", len(events)), zap.Error(err))
		return
	}
	metrics.EventsPublished.WithLabelValues(metrics.Outcome(nil)).Add(float64(len(events)))
}

func (uow *GormUnitOfWork) reset() {
	uow.trackedAggregates = make([]trackedAggregate, 0)
	uow.versions = make(map[kernel.UUID]int)
}

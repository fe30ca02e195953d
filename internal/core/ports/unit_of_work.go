package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is one database transaction. Domain events recorded by the
// aggregates it saved are published after a successful Commit.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	StockRepository() StockRepository
	OrderRepository() OrderRepository
	ShipmentRepository() ShipmentRepository
	ReturnRepository() ReturnRepository
	PaymentRepository() PaymentRepository
}

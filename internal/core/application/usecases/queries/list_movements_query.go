package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

const (
	DefaultMovementsLimit = 50
	MaxMovementsLimit     = 500
)

var ErrListMovementsQueryIsNotConstructed = errors.New(
	"ListMovementsQuery must be created via NewListMovementsQuery constructor",
)

// ListMovementsQuery pages through the ledger of one stock record, newest
// entry first.
//
// Example:
//
//	query, err := NewListMovementsQuery(stockRecordID, nil, 0)
//	movements, err := handler.Handle(ctx, query)
type ListMovementsQuery struct {
	stockRecordID kernel.UUID
	movementType  *inventory.MovementType
	limit         int

	guard guard.ConstructorGuard
}

// NewListMovementsQuery validates the filter. A zero limit selects
// DefaultMovementsLimit.
func NewListMovementsQuery(
	stockRecordID kernel.UUID,
	movementType *inventory.MovementType,
	limit int,
) (ListMovementsQuery, error) {
	if err := stockRecordID.Validate(); err != nil {
		return ListMovementsQuery{}, errs.NewValueIsRequiredErrorWithCause("stockRecordID", err)
	}
	if movementType != nil {
		if err := movementType.Validate(); err != nil {
			return ListMovementsQuery{}, err
		}
	}
	if limit == 0 {
		limit = DefaultMovementsLimit
	}
	if limit < 0 || limit > MaxMovementsLimit {
		return ListMovementsQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxMovementsLimit)
	}

	return ListMovementsQuery{
		stockRecordID: stockRecordID,
		movementType:  movementType,
		limit:         limit,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (q ListMovementsQuery) StockRecordID() kernel.UUID {
	return q.stockRecordID
}

func (q ListMovementsQuery) MovementType() *inventory.MovementType {
	return q.movementType
}

func (q ListMovementsQuery) Limit() int {
	return q.limit
}

func (q ListMovementsQuery) Validate() error {
	return q.guard.Validate(ErrListMovementsQueryIsNotConstructed)
}

type ListMovementsQueryResponse struct {
	ID            kernel.UUID
	StockRecordID kernel.UUID
	Type          inventory.MovementType
	Status        inventory.MovementStatus
	Quantity      int
	ReferenceType kernel.EntityType
	ReferenceID   string
	Batch         string
	UnitCost      *decimal.Decimal
	Note          string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

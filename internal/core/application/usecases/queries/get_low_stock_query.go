package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrGetLowStockQueryIsNotConstructed = errors.New(
	"GetLowStockQuery must be created via NewGetLowStockQuery constructor",
)

// GetLowStockQuery lists stock records whose available quantity is at or
// below their reorder point, optionally within one warehouse.
type GetLowStockQuery struct {
	warehouseID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetLowStockQuery builds the query. A nil warehouse scans every warehouse.
func NewGetLowStockQuery(warehouseID *kernel.UUID) GetLowStockQuery {
	return GetLowStockQuery{warehouseID: warehouseID, guard: guard.NewConstructorGuard()}
}

func (q GetLowStockQuery) WarehouseID() *kernel.UUID {
	return q.warehouseID
}

func (q GetLowStockQuery) Validate() error {
	return q.guard.Validate(ErrGetLowStockQueryIsNotConstructed)
}

// GetLowStockQueryResponse is one record due for replenishment.
type GetLowStockQueryResponse struct {
	StockRecordID kernel.UUID
	ProductID     kernel.UUID
	VariantID     *kernel.UUID
	WarehouseID   kernel.UUID
	OnHand        int
	Reserved      int
	Available     int
	ReorderPoint  int
}

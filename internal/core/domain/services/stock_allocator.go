package services

import (
	"errors"
	"fmt"
	"slices"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// ErrNoStockRecords is returned when a product has no stock record in any warehouse.
var ErrNoStockRecords = errors.New("no stock records for product")

// AllocationLine is the quantity taken from one stock record.
type AllocationLine struct {
	StockRecordID kernel.UUID
	WarehouseID   kernel.UUID
	Quantity      int
}

// Allocation is the split of one requested quantity across warehouses.
// Deficit is the part no warehouse could cover; callers decide whether a
// deficit is fatal.
type Allocation struct {
	Lines   []AllocationLine
	Deficit int
}

// IsComplete reports whether the whole request was covered.
func (a Allocation) IsComplete() bool {
	return a.Deficit == 0
}

// Allocated returns the covered quantity.
func (a Allocation) Allocated() int {
	total := 0
	for _, line := range a.Lines {
		total += line.Quantity
	}
	return total
}

// StockAllocator is a domain service that splits an order item across the
// warehouses holding the product.
//
// Business rules:
//   - A preferred warehouse, when given and stocked, is drawn from first
//   - Remaining candidates are ordered by descending on-hand quantity
//   - Ties are broken by ascending warehouse identifier so the result is deterministic
//   - Each record contributes min(available, remaining)
//   - Records with nothing available are skipped
//
// Example usage:
//
//	allocation, err := services.NewStockAllocator().Allocate(records, 5, item.WarehouseID())
//	if err != nil {
//	    return err
//	}
//	if !allocation.IsComplete() {
//	    return errs.NewInsufficientStockError(productID.String(), 5, allocation.Allocated())
//	}
type StockAllocator struct{}

// NewStockAllocator creates a new StockAllocator instance.
func NewStockAllocator() StockAllocator {
	return StockAllocator{}
}

// Allocate runs the greedy split.
//
// Parameters:
//   - records: candidate stock records of one product variant (must be valid)
//   - quantity: requested quantity, greater than zero
//   - preferredWarehouseID: optional warehouse to draw from first
//
// Returns:
//   - Allocation with one line per contributing record and the uncovered deficit
//   - ErrNoStockRecords when records is empty
//   - validation error for a non positive quantity or an invalid record
func (StockAllocator) Allocate(
	records []*inventory.StockRecord,
	quantity int,
	preferredWarehouseID *kernel.UUID,
) (Allocation, error) {
	if quantity <= 0 {
		return Allocation{}, errs.NewValueIsInvalidErrorWithCause(
			"quantity",
			fmt.Errorf("%d is not greater than 0", quantity),
		)
	}
	if len(records) == 0 {
		return Allocation{}, ErrNoStockRecords
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return Allocation{}, err
		}
	}

	candidates := slices.Clone(records)
	slices.SortStableFunc(candidates, func(a, b *inventory.StockRecord) int {
		if preferredWarehouseID != nil {
			aPreferred := a.WarehouseID().IsEqual(*preferredWarehouseID)
			bPreferred := b.WarehouseID().IsEqual(*preferredWarehouseID)
			if aPreferred != bPreferred {
				if aPreferred {
					return -1
				}
				return 1
			}
		}
		if a.OnHand() != b.OnHand() {
			return b.OnHand() - a.OnHand()
		}
		switch {
		case a.WarehouseID().Less(b.WarehouseID()):
			return -1
		case b.WarehouseID().Less(a.WarehouseID()):
			return 1
		default:
			return 0
		}
	})

	remaining := quantity
	allocation := Allocation{Lines: make([]AllocationLine, 0, len(candidates))}
	for _, rec := range candidates {
		if remaining == 0 {
			break
		}
		take := min(rec.Available(), remaining)
		if take <= 0 {
			continue
		}
		allocation.Lines = append(allocation.Lines, AllocationLine{
			StockRecordID: rec.ID(),
			WarehouseID:   rec.WarehouseID(),
			Quantity:      take,
		})
		remaining -= take
	}
	allocation.Deficit = remaining

	return allocation, nil
}

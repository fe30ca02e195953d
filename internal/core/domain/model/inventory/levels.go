package inventory

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Levels holds the replenishment thresholds of a stock record.
// A zero MaxLevel means the record has no upper bound.
type Levels struct {
	minLevel     int
	maxLevel     int
	reorderPoint int
}

func NewLevels(minLevel, maxLevel, reorderPoint int) (Levels, error) {
	if minLevel < 0 {
		return Levels{}, errs.NewValueIsOutOfRangeError("minLevel", minLevel, 0, "unbounded")
	}
	if maxLevel < 0 {
		return Levels{}, errs.NewValueIsOutOfRangeError("maxLevel", maxLevel, 0, "unbounded")
	}
	if reorderPoint < 0 {
		return Levels{}, errs.NewValueIsOutOfRangeError("reorderPoint", reorderPoint, 0, "unbounded")
	}
	if maxLevel > 0 && maxLevel < minLevel {
		return Levels{}, errs.NewValueIsInvalidErrorWithCause(
			"maxLevel",
			fmt.Errorf("%d is lower than min level %d", maxLevel, minLevel),
		)
	}
	return Levels{minLevel: minLevel, maxLevel: maxLevel, reorderPoint: reorderPoint}, nil
}

func (l Levels) MinLevel() int {
	return l.minLevel
}

func (l Levels) MaxLevel() int {
	return l.maxLevel
}

func (l Levels) ReorderPoint() int {
	return l.reorderPoint
}

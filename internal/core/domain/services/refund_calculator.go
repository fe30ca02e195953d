package services

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/returns"

	"github.com/shopspring/decimal"
)

// RefundCalculator computes the refund of a return.
//
// Business rules:
//   - an explicit override wins
//   - otherwise refund = items amount − restocking fee − return shipping cost, floored at 0
//   - a return covering every live line in full refunds the order grand total,
//     so shipping and order level discounts are accounted for
type RefundCalculator struct{}

func NewRefundCalculator() RefundCalculator {
	return RefundCalculator{}
}

// Calculate returns the amount to refund for r against o.
func (RefundCalculator) Calculate(o *order.Order, r *returns.Return, override *decimal.Decimal) (decimal.Decimal, error) {
	if err := errors.Join(o.Validate(), r.Validate()); err != nil {
		return decimal.Zero, err
	}
	if override != nil {
		if err := kernel.ValidateAmount("refundOverride", *override); err != nil {
			return decimal.Zero, err
		}
		return kernel.RoundMoney(*override), nil
	}

	base := r.ItemsAmount()
	if coversWholeOrder(o, r) {
		base = o.GrandTotal()
	}
	refund := base.Sub(r.RestockingFee()).Sub(r.ReturnShippingCost())
	return kernel.ClampZero(kernel.RoundMoney(refund)), nil
}

func coversWholeOrder(o *order.Order, r *returns.Return) bool {
	returned := make(map[kernel.UUID]int, len(r.Items()))
	for _, item := range r.Items() {
		returned[item.OrderItemID] += item.Quantity
	}

	live := 0
	for _, item := range o.Items() {
		if item.IsCancelled() {
			continue
		}
		live++
		if returned[item.ID()] != item.Quantity() {
			return false
		}
	}
	return live > 0
}

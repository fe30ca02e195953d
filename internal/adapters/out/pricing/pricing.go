// Package pricing holds the stock tax, shipping and discount rules used when
// no external pricing service is configured.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// FlatRateTax charges rate on every physical line. Digital goods are
// charged too unless exemptDigital is set.
func FlatRateTax(rate decimal.Decimal, exemptDigital bool) ports.TaxCalculator {
	return func(product ports.CatalogProduct, _ int, lineSubtotal decimal.Decimal) decimal.Decimal {
		if exemptDigital && product.IsDigital {
			return decimal.Zero
		}
		return kernel.RoundMoney(lineSubtotal.Mul(rate))
	}
}

// FlatShipping charges amount per order with at least one physical line.
// Orders at or above freeOver ship free; a zero freeOver disables that.
func FlatShipping(amount, freeOver decimal.Decimal) ports.ShippingCalculator {
	return func(o *order.Order) decimal.Decimal {
		physical := false
		for _, item := range o.Items() {
			if !item.IsCancelled() && !item.Product().IsDigital {
				physical = true
				break
			}
		}
		if !physical {
			return decimal.Zero
		}
		if freeOver.IsPositive() && o.Subtotal().GreaterThanOrEqual(freeOver) {
			return decimal.Zero
		}
		return amount
	}
}

type discountRule struct {
	percent bool
	value   decimal.Decimal
}

// CodeTable evaluates discount codes against a fixed table. A code is either
// a percentage of the order subtotal or a fixed amount.
type CodeTable struct {
	rules map[string]discountRule
}

// ParseCodeTable reads a table such as "SPRING10=10%,WELCOME=5". Codes are
// case insensitive.
func ParseCodeTable(codes string) (*CodeTable, error) {
	table := &CodeTable{rules: make(map[string]discountRule)}
	for _, entry := range strings.Split(codes, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		code, raw, ok := strings.Cut(entry, "=")
		code = strings.ToUpper(strings.TrimSpace(code))
		raw = strings.TrimSpace(raw)
		if !ok || code == "" || raw == "" {
			return nil, errs.NewValueIsInvalidErrorWithCause("discountCodes", fmt.Errorf("malformed entry %q", entry))
		}

		rule := discountRule{percent: strings.HasSuffix(raw, "%")}
		value, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
		if err != nil || !value.IsPositive() {
			return nil, errs.NewValueIsInvalidErrorWithCause("discountCodes", fmt.Errorf("bad amount in %q", entry))
		}
		if rule.percent && value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errs.NewValueIsOutOfRangeError("discountCodes", raw, "0%", "100%")
		}
		rule.value = value
		table.rules[code] = rule
	}
	return table, nil
}

// Evaluate implements ports.DiscountEvaluator.
func (t *CodeTable) Evaluate(_ context.Context, o *order.Order, code string) (decimal.Decimal, error) {
	rule, ok := t.rules[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return decimal.Zero, errs.NewValueIsInvalidErrorWithCause("discountCode", fmt.Errorf("%q is not a known code", code))
	}
	if !rule.percent {
		return rule.value, nil
	}
	return kernel.RoundMoney(o.Subtotal().Mul(rule.value).Div(decimal.NewFromInt(100))), nil
}

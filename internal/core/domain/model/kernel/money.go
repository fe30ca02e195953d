package kernel

import (
	"fmt"
	"regexp"

	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for every amount.
const MoneyScale = 2

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ValidateAmount rejects negative amounts.
func ValidateAmount(paramName string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause(paramName, fmt.Errorf("%s is negative", amount.String()))
	}
	return nil
}

// ValidateCurrency accepts ISO 4217 style codes.
func ValidateCurrency(currency string) error {
	if !currencyPattern.MatchString(currency) {
		return errs.NewValueIsInvalidErrorWithCause("currency", fmt.Errorf("%q is not an ISO 4217 code", currency))
	}
	return nil
}

// ClampZero floors an amount at zero.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

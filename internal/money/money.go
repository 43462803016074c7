// Package money handles amounts in integer cents (paisa) and the decimal
// arithmetic around them. User-entered prices and discount percentages arrive
// as free-form strings; everything stored or summed is an int64 cent value so
// totals never drift.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParsePrice converts a user-entered decimal string such as "150.00" into
// cents. Fractions below one cent are rounded half away from zero.
func ParsePrice(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("price is required")
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return 0, fmt.Errorf("price %q is not a number", input)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("price must not be negative")
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// ParseDiscount converts a discount-percent string into a decimal in [0,100].
func ParseDiscount(input string) (decimal.Decimal, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero, fmt.Errorf("discount %q is not a number", input)
	}
	if d.IsNegative() || d.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("discount must be between 0 and 100")
	}
	return d, nil
}

// ParseDiscountLenient behaves like ParseDiscount but maps any unparseable
// input to zero. This mirrors how the cart preview treats a half-typed
// discount field: the entry is simply ignored until it becomes a number.
// Out-of-range values are still clamped to zero.
func ParseDiscountLenient(input string) decimal.Decimal {
	d, err := ParseDiscount(input)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DiscountCents computes the discount amount for a gross cent total, rounded
// half away from zero to the nearest cent.
func DiscountCents(grossCents int64, percent decimal.Decimal) int64 {
	if percent.IsZero() {
		return 0
	}
	return decimal.NewFromInt(grossCents).Mul(percent).Div(hundred).Round(0).IntPart()
}

// Format renders cents as a plain decimal string, e.g. 15000 -> "150.00".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// FormatPKR renders cents with the PKR currency tag used on receipts and
// reports, e.g. 15000 -> "PKR 150.00".
func FormatPKR(cents int64) string {
	return "PKR " + Format(cents)
}

// FormatDisplay renders cents the way the dashboard shows today's sales,
// e.g. 15000 -> "Pkr 150.00".
func FormatDisplay(cents int64) string {
	return "Pkr " + Format(cents)
}

// FormatPercent renders a discount percentage without trailing zeros,
// e.g. 10 -> "10", 7.5 -> "7.5".
func FormatPercent(percent decimal.Decimal) string {
	return percent.String()
}

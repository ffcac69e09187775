package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept on stored amounts. Line tax
// is the only value rounded (half away from zero); every aggregate is an exact
// sum of line values, so total always equals the sum of line totals.
const MoneyScale = 2

// DefaultTaxRate is applied to products created without an explicit rate.
var DefaultTaxRate = decimal.RequireFromString("0.11")

// PriceLine is one priced item: unit price, quantity and tax rate snapshot.
type PriceLine struct {
	Price    decimal.Decimal
	Quantity int
	TaxRate  decimal.Decimal
}

// LineAmounts are the computed money values of one line.
type LineAmounts struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Totals holds per-line amounts in input order and their sums.
type Totals struct {
	Lines    []LineAmounts
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ValidTaxRate reports whether 0 <= rate <= 1.
func ValidTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(1))
}

// CalculateLine prices a single line.
func CalculateLine(line PriceLine) LineAmounts {
	subtotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(MoneyScale)
	tax := subtotal.Mul(line.TaxRate).Round(MoneyScale)
	return LineAmounts{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// CalculateTotals prices every line and sums them. It has no side effects.
func CalculateTotals(lines []PriceLine) (Totals, error) {
	totals := Totals{
		Lines:    make([]LineAmounts, 0, len(lines)),
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}

	for i, line := range lines {
		if line.Quantity <= 0 {
			return Totals{}, fmt.Errorf("line %d: quantity must be positive", i)
		}
		if line.Price.IsNegative() {
			return Totals{}, fmt.Errorf("line %d: price must not be negative", i)
		}
		if !ValidTaxRate(line.TaxRate) {
			return Totals{}, fmt.Errorf("line %d: tax rate must be between 0 and 1", i)
		}

		amounts := CalculateLine(line)
		totals.Lines = append(totals.Lines, amounts)
		totals.Subtotal = totals.Subtotal.Add(amounts.Subtotal)
		totals.Tax = totals.Tax.Add(amounts.Tax)
		totals.Total = totals.Total.Add(amounts.Total)
	}

	return totals, nil
}

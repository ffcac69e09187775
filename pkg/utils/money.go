package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders an amount the way Indonesian receipts do: "Rp 1.234.567".
// Fractions are rounded to whole rupiah.
func FormatRupiah(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	digits := rounded.Abs().StringFixed(0)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	if rounded.IsNegative() {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

package payroll

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
)

// HalfUpCents rounds to two decimal places with midpoints away from zero.
func HalfUpCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// HalfUpUnit rounds to a whole currency unit with midpoints away from zero.
func HalfUpUnit(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// FormatMoney renders d with thousands separators and exactly two decimals,
// e.g. 10000 -> "10,000.00". It is a display projection only.
func FormatMoney(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.Grow(len(fixed) + len(intPart)/3 + 1)
	b.WriteString(sign)
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatPercent renders a fractional rate as a percentage with two decimals ("16.00%").
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(hundred).StringFixed(2) + "%"
}

package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxBracket is one tier of the monthly individual income tax table. An
// invalid UpperBound means the bracket is unbounded.
type TaxBracket struct {
	UpperBound     decimal.NullDecimal
	Rate           decimal.Decimal
	QuickDeduction decimal.Decimal
}

func (b TaxBracket) covers(income decimal.Decimal) bool {
	return !b.UpperBound.Valid || income.LessThanOrEqual(b.UpperBound.Decimal)
}

// TaxBrackets is ordered ascending by upper bound.
type TaxBrackets []TaxBracket

func bracket(upper int64, ratePercent int64, quick int64) TaxBracket {
	return TaxBracket{
		UpperBound:     decimal.NewNullDecimal(decimal.NewFromInt(upper)),
		Rate:           decimal.New(ratePercent, -2),
		QuickDeduction: decimal.NewFromInt(quick),
	}
}

// DefaultTaxBrackets returns the seven-tier table with quick deductions chosen
// so the tax is continuous across every bound.
func DefaultTaxBrackets() TaxBrackets {
	return TaxBrackets{
		bracket(3000, 3, 0),
		bracket(12000, 10, 210),
		bracket(25000, 20, 1410),
		bracket(35000, 25, 2660),
		bracket(55000, 30, 4410),
		bracket(80000, 35, 7160),
		{Rate: decimal.New(45, -2), QuickDeduction: decimal.NewFromInt(15160)},
	}
}

func (t TaxBrackets) Validate() error {
	if len(t) == 0 {
		return errors.New("tax brackets: table is empty")
	}
	for i, b := range t {
		if b.Rate.IsNegative() {
			return fmt.Errorf("tax brackets: bracket %d has a negative rate", i)
		}
		last := i == len(t)-1
		if last != !b.UpperBound.Valid {
			return fmt.Errorf("tax brackets: only the last bracket may be unbounded")
		}
		if i > 0 && b.UpperBound.Valid && !b.UpperBound.Decimal.GreaterThan(t[i-1].UpperBound.Decimal) {
			return fmt.Errorf("tax brackets: bracket %d is not ascending", i)
		}
	}
	return nil
}

// ComputeTax estimates the monthly tax on a non-negative taxable income. The
// first bracket whose bound is >= income applies.
func (t TaxBrackets) ComputeTax(income decimal.Decimal) decimal.Decimal {
	for _, b := range t {
		if b.covers(income) {
			return HalfUpCents(income.Mul(b.Rate).Sub(b.QuickDeduction))
		}
	}
	defaults := DefaultTaxBrackets()
	top := defaults[len(defaults)-1]
	return HalfUpCents(income.Mul(top.Rate).Sub(top.QuickDeduction))
}

// ComputeTax applies the default bracket table.
func ComputeTax(income decimal.Decimal) decimal.Decimal {
	return DefaultTaxBrackets().ComputeTax(income)
}

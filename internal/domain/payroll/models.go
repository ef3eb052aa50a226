package payroll

import "github.com/shopspring/decimal"

type CityInfo struct {
	City      string          `json:"city"`
	MinWage   decimal.Decimal `json:"minWage"`
	HasWage   bool            `json:"hasMinWage"`
	ItemCount int             `json:"itemCount"`
}

// Quote is the insurance breakdown for one city and target salary.
type Quote struct {
	City          string        `json:"city"`
	KnownCity     bool          `json:"knownCity"`
	TargetGross   string        `json:"targetGross"`
	Contributions Contributions `json:"contributions"`
	// SocialInsuranceEmployee excludes the housing fund.
	SocialInsuranceEmployee decimal.Decimal `json:"socialInsuranceEmployee"`
	InferredAllowance       decimal.Decimal `json:"inferredSocialInsuranceAllowance"`
}

type BatchSummary struct {
	RowsTotal     int             `json:"rowsTotal"`
	RowsOK        int             `json:"rowsOk"`
	RowsFailed    int             `json:"rowsFailed"`
	NegativeRows  int             `json:"negativePerformanceRows"`
	TotalGross    decimal.Decimal `json:"totalGross"`
	TotalNet      decimal.Decimal `json:"totalNet"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	TotalEmployer decimal.Decimal `json:"totalEmployerCost"`
}

// Summarize totals the successful rows of a batch.
func (b BatchResult) Summarize() BatchSummary {
	s := BatchSummary{
		RowsTotal:     len(b.Results) + len(b.Errors),
		RowsOK:        len(b.Results),
		RowsFailed:    len(b.Errors),
		TotalGross:    decimal.Zero,
		TotalNet:      decimal.Zero,
		TotalTax:      decimal.Zero,
		TotalEmployer: decimal.Zero,
	}
	for _, r := range b.Results {
		if r.PerformancePay.IsNegative() {
			s.NegativeRows++
		}
		s.TotalGross = s.TotalGross.Add(r.GrossIncome)
		s.TotalNet = s.TotalNet.Add(r.NetPay)
		s.TotalTax = s.TotalTax.Add(r.EstimatedTax)
		s.TotalEmployer = s.TotalEmployer.Add(r.TotalEmployerCost)
	}
	return s
}

package payroll

import "github.com/shopspring/decimal"

// ContributionLine is one insurance item's contribution for a row.
type ContributionLine struct {
	Name            string          `json:"name"`
	Base            decimal.Decimal `json:"base"`
	CompanyRate     string          `json:"companyRate"`
	PersonalRate    string          `json:"personalRate"`
	CompanyAmount   decimal.Decimal `json:"companyAmount"`
	PersonalAmount  decimal.Decimal `json:"personalAmount"`
	CompanyFullPay  decimal.Decimal `json:"companyFullPay"`
	Mandatory       bool            `json:"mandatory"`
	HousingFundItem bool            `json:"housingFund"`
}

// Contributions aggregates a city's schedule for one target salary.
type Contributions struct {
	Lines              []ContributionLine `json:"lines"`
	CompanyBasicTotal  decimal.Decimal    `json:"companyBasicTotal"`
	CompanyFullTotal   decimal.Decimal    `json:"companyFullTotal"`
	PersonalBasicTotal decimal.Decimal    `json:"personalBasicTotal"`
	PersonalHousing    decimal.Decimal    `json:"personalHousingFund"`
}

// PersonalSocialInsurance is the employee share excluding the housing fund.
func (c Contributions) PersonalSocialInsurance() decimal.Decimal {
	return c.PersonalBasicTotal.Sub(c.PersonalHousing)
}

// ComputeContributions applies the city's schedule to the statutory minimum
// base for the basic amounts and to targetGross for the company full amount.
// An unknown city yields no lines and zero totals. BaseMax is not applied.
func ComputeContributions(schedules CitySchedules, city string, targetGross decimal.Decimal) Contributions {
	items := schedules[city]
	out := Contributions{
		Lines:              make([]ContributionLine, 0, len(items)),
		CompanyBasicTotal:  decimal.Zero,
		CompanyFullTotal:   decimal.Zero,
		PersonalBasicTotal: decimal.Zero,
		PersonalHousing:    decimal.Zero,
	}

	for _, item := range items {
		base := item.BaseMin
		companyBasic := HalfUpCents(base.Mul(item.CompanyRate))
		personalBasic := HalfUpCents(base.Mul(item.PersonalRate))
		companyFull := HalfUpCents(targetGross.Mul(item.CompanyRate))

		housing := item.IsHousingFund()
		if housing {
			companyBasic = HalfUpUnit(companyBasic)
			companyFull = HalfUpUnit(companyFull)
			personalBasic = HalfUpUnit(personalBasic)
			out.PersonalHousing = personalBasic
		}

		out.PersonalBasicTotal = out.PersonalBasicTotal.Add(personalBasic)
		out.CompanyBasicTotal = out.CompanyBasicTotal.Add(companyBasic)
		out.CompanyFullTotal = out.CompanyFullTotal.Add(companyFull)

		out.Lines = append(out.Lines, ContributionLine{
			Name:            item.Name,
			Base:            base,
			CompanyRate:     FormatPercent(item.CompanyRate),
			PersonalRate:    FormatPercent(item.PersonalRate),
			CompanyAmount:   companyBasic,
			PersonalAmount:  personalBasic,
			CompanyFullPay:  companyFull,
			Mandatory:       item.Mandatory,
			HousingFundItem: housing,
		})
	}
	return out
}

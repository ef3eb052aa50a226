package payroll

import "github.com/shopspring/decimal"

// Result is the payroll split for one employee row.
type Result struct {
	EmployeeCode string `json:"employeeCode"`
	EmployeeName string `json:"employeeName"`

	TargetGross              decimal.Decimal `json:"targetGross"`
	BasicSalary              decimal.Decimal `json:"basicSalary"`
	PerformancePay           decimal.Decimal `json:"performancePay"`
	AttendanceDeduction      decimal.Decimal `json:"attendanceDeduction"`
	LatenessDeduction        decimal.Decimal `json:"latenessDeduction"`
	PositionAllowance        decimal.Decimal `json:"positionAllowance"`
	SkillAllowance           decimal.Decimal `json:"skillAllowance"`
	SocialInsuranceAllowance decimal.Decimal `json:"socialInsuranceAllowance"`
	AnnualLeavePrepay        decimal.Decimal `json:"annualLeavePrepay"`
	ContractEndAllowance     decimal.Decimal `json:"contractEndAllowance"`
	GrossIncome              decimal.Decimal `json:"grossIncome"`
	EmployeeSocialInsurance  decimal.Decimal `json:"employeeSocialInsurance"`
	EmployeeHousingFund      decimal.Decimal `json:"employeeHousingFund"`
	PreTaxDeduction          decimal.Decimal `json:"preTaxDeduction"`
	TaxableIncome            decimal.Decimal `json:"taxableIncome"`
	EstimatedTax             decimal.Decimal `json:"estimatedTax"`
	NetPay                   decimal.Decimal `json:"netPay"`
	EmployerInsuranceCost    decimal.Decimal `json:"employerInsuranceCost"`
	TotalEmployerCost        decimal.Decimal `json:"totalEmployerCost"`

	Display map[string]string `json:"display"`
}

// ProcessRow derives one employee's payroll split. It reads nothing but its
// arguments; performance pay is a residual and may be negative.
func ProcessRow(in EmployeeInput, city string, minWages MinWageTable, ins Contributions, brackets TaxBrackets) Result {
	basic, ok := minWages[city]
	if !ok {
		basic = decimal.NewFromInt(DefaultBasicSalary)
	}

	social, ok := in.SocialInsuranceOverride()
	if !ok {
		social = ins.CompanyFullTotal.Sub(ins.CompanyBasicTotal)
	}

	attendance := in.EffectiveAttendanceDeduction()
	lateness := in.EffectiveLatenessDeduction()
	annualLeave := in.EffectiveAnnualLeavePrepay()
	position := in.EffectivePositionAllowance()
	skill := in.EffectiveSkillAllowance()
	contractEnd := in.EffectiveContractEndAllowance()

	adjusted := in.TargetGross.Sub(attendance).Sub(lateness)
	gross := adjusted
	performance := adjusted.
		Sub(basic).
		Sub(annualLeave).
		Sub(position).
		Sub(skill).
		Sub(contractEnd).
		Sub(social)

	preTax := ins.PersonalBasicTotal
	taxable := decimal.Max(gross.Sub(ins.PersonalBasicTotal).Sub(decimal.NewFromInt(StandardDeduction)), decimal.Zero)
	tax := brackets.ComputeTax(taxable)
	net := gross.Sub(preTax).Sub(tax)
	employerCost := gross.Add(ins.CompanyBasicTotal)

	res := Result{
		EmployeeCode:             in.Code,
		EmployeeName:             in.Name,
		TargetGross:              in.TargetGross,
		BasicSalary:              basic,
		PerformancePay:           performance,
		AttendanceDeduction:      attendance,
		LatenessDeduction:        lateness,
		PositionAllowance:        position,
		SkillAllowance:           skill,
		SocialInsuranceAllowance: social,
		AnnualLeavePrepay:        annualLeave,
		ContractEndAllowance:     contractEnd,
		GrossIncome:              gross,
		EmployeeSocialInsurance:  ins.PersonalSocialInsurance(),
		EmployeeHousingFund:      ins.PersonalHousing,
		PreTaxDeduction:          preTax,
		TaxableIncome:            taxable,
		EstimatedTax:             tax,
		NetPay:                   net,
		EmployerInsuranceCost:    ins.CompanyBasicTotal,
		TotalEmployerCost:        employerCost,
	}
	res.Display = res.displayFields()
	return res
}

// Columns lists the output columns in report order with their titles.
var Columns = []struct {
	Key   string
	Title string
}{
	{"employeeCode", "员工工号"},
	{"employeeName", "员工姓名"},
	{"targetGross", "税前薪资总额"},
	{"basicSalary", "基本工资"},
	{"performancePay", "绩效工资"},
	{"attendanceDeduction", "考勤扣款"},
	{"latenessDeduction", "迟到扣款"},
	{"positionAllowance", "职务补贴"},
	{"skillAllowance", "技能补贴"},
	{"socialInsuranceAllowance", "社保补贴"},
	{"annualLeavePrepay", "年休假预发补贴"},
	{"contractEndAllowance", "合同到期补贴"},
	{"grossIncome", "应发工资"},
	{"employeeSocialInsurance", "社保个人缴纳"},
	{"employeeHousingFund", "公积金个人缴纳"},
	{"estimatedTax", "预估个人所得税"},
	{"netPay", "预估实发"},
	{"employerInsuranceCost", "企业社保公积金"},
	{"totalEmployerCost", "企业总成本"},
}

// Amounts returns the monetary fields keyed like Columns.
func (r Result) Amounts() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"targetGross":              r.TargetGross,
		"basicSalary":              r.BasicSalary,
		"performancePay":           r.PerformancePay,
		"attendanceDeduction":      r.AttendanceDeduction,
		"latenessDeduction":        r.LatenessDeduction,
		"positionAllowance":        r.PositionAllowance,
		"skillAllowance":           r.SkillAllowance,
		"socialInsuranceAllowance": r.SocialInsuranceAllowance,
		"annualLeavePrepay":        r.AnnualLeavePrepay,
		"contractEndAllowance":     r.ContractEndAllowance,
		"grossIncome":              r.GrossIncome,
		"employeeSocialInsurance":  r.EmployeeSocialInsurance,
		"employeeHousingFund":      r.EmployeeHousingFund,
		"preTaxDeduction":          r.PreTaxDeduction,
		"taxableIncome":            r.TaxableIncome,
		"estimatedTax":             r.EstimatedTax,
		"netPay":                   r.NetPay,
		"employerInsuranceCost":    r.EmployerInsuranceCost,
		"totalEmployerCost":        r.TotalEmployerCost,
	}
}

func (r Result) displayFields() map[string]string {
	amounts := r.Amounts()
	out := make(map[string]string, len(amounts))
	for key, v := range amounts {
		out[key] = FormatMoney(v)
	}
	return out
}

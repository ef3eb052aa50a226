package payroll

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustDefaultConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return cfg
}

func assertAmount(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got.String())
	}
}

func TestProcessRowHangzhouRegression(t *testing.T) {
	cfg := mustDefaultConfig(t)
	in := EmployeeInput{Code: "GH001", Name: "张伟", TargetGross: dec("10000")}

	ins := ComputeContributions(cfg.Schedules, "杭州", in.TargetGross)
	res := ProcessRow(in, "杭州", cfg.MinWages, ins, cfg.Brackets)

	assertAmount(t, "basicSalary", res.BasicSalary, "2490")
	assertAmount(t, "socialInsuranceAllowance", res.SocialInsuranceAllowance, "1934.32")
	assertAmount(t, "annualLeavePrepay", res.AnnualLeavePrepay, "500")
	assertAmount(t, "performancePay", res.PerformancePay, "5075.68")
	assertAmount(t, "grossIncome", res.GrossIncome, "10000")
	assertAmount(t, "employeeSocialInsurance", res.EmployeeSocialInsurance, "505.26")
	assertAmount(t, "employeeHousingFund", res.EmployeeHousingFund, "199")
	assertAmount(t, "preTaxDeduction", res.PreTaxDeduction, "704.26")
	assertAmount(t, "taxableIncome", res.TaxableIncome, "4295.74")
	assertAmount(t, "estimatedTax", res.EstimatedTax, "219.57")
	assertAmount(t, "netPay", res.NetPay, "9076.17")
	assertAmount(t, "employerInsuranceCost", res.EmployerInsuranceCost, "1435.68")
	assertAmount(t, "totalEmployerCost", res.TotalEmployerCost, "11435.68")

	if res.Display["netPay"] != "9,076.17" {
		t.Fatalf("expected display net 9,076.17, got %q", res.Display["netPay"])
	}
	if res.Display["totalEmployerCost"] != "11,435.68" {
		t.Fatalf("expected display employer cost 11,435.68, got %q", res.Display["totalEmployerCost"])
	}
}

func TestProcessRowDeductionsReduceGross(t *testing.T) {
	cfg := mustDefaultConfig(t)
	in := EmployeeInput{
		Code:                "GH002",
		Name:                "李娜",
		TargetGross:         dec("12000"),
		AttendanceDeduction: decimal.NewNullDecimal(dec("300")),
		LatenessDeduction:   decimal.NewNullDecimal(dec("100")),
	}
	res := Calculate(cfg, "杭州", in)

	assertAmount(t, "grossIncome", res.GrossIncome, "11600")
	// 11600 - 2490 - 500 - (12000*rates - 1435.68)
	// full: 1920 + 1080 + 60 + 24 + 0 + 960 = 4044 -> allowance 2608.32
	assertAmount(t, "socialInsuranceAllowance", res.SocialInsuranceAllowance, "2608.32")
	assertAmount(t, "performancePay", res.PerformancePay, "6001.68")
	// taxable 11600 - 704.26 - 5000 = 5895.74 -> 589.574 - 210
	assertAmount(t, "estimatedTax", res.EstimatedTax, "379.57")
	assertAmount(t, "netPay", res.NetPay, "10516.17")
}

func TestProcessRowSocialAllowanceOverride(t *testing.T) {
	cfg := mustDefaultConfig(t)
	in := EmployeeInput{
		Code:                     "GH003",
		Name:                     "王强",
		TargetGross:              dec("10000"),
		SocialInsuranceAllowance: decimal.NewNullDecimal(dec("800")),
	}
	res := Calculate(cfg, "杭州", in)
	assertAmount(t, "socialInsuranceAllowance", res.SocialInsuranceAllowance, "800")
	assertAmount(t, "performancePay", res.PerformancePay, "6210")
}

func TestProcessRowZeroSocialAllowanceIsInferred(t *testing.T) {
	cfg := mustDefaultConfig(t)
	in := EmployeeInput{
		Code:                     "GH004",
		Name:                     "刘洋",
		TargetGross:              dec("10000"),
		SocialInsuranceAllowance: decimal.NewNullDecimal(decimal.Zero),
	}
	res := Calculate(cfg, "杭州", in)
	assertAmount(t, "socialInsuranceAllowance", res.SocialInsuranceAllowance, "1934.32")
}

func TestProcessRowExplicitZeroAnnualLeave(t *testing.T) {
	cfg := mustDefaultConfig(t)
	in := EmployeeInput{
		Code:              "GH005",
		Name:              "陈静",
		TargetGross:       dec("10000"),
		AnnualLeavePrepay: decimal.NewNullDecimal(decimal.Zero),
	}
	res := Calculate(cfg, "杭州", in)
	assertAmount(t, "annualLeavePrepay", res.AnnualLeavePrepay, "0")
	assertAmount(t, "performancePay", res.PerformancePay, "5575.68")
}

func TestProcessRowUnknownCityFallback(t *testing.T) {
	cfg := mustDefaultConfig(t)
	in := EmployeeInput{Code: "GH006", Name: "赵磊", TargetGross: dec("10000")}

	ins := ComputeContributions(cfg.Schedules, "Unknown", in.TargetGross)
	if len(ins.Lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(ins.Lines))
	}
	for name, v := range map[string]decimal.Decimal{
		"companyBasicTotal":  ins.CompanyBasicTotal,
		"companyFullTotal":   ins.CompanyFullTotal,
		"personalBasicTotal": ins.PersonalBasicTotal,
		"personalHousing":    ins.PersonalHousing,
	} {
		if !v.IsZero() {
			t.Fatalf("%s: expected zero, got %s", name, v)
		}
	}

	res := ProcessRow(in, "Unknown", cfg.MinWages, ins, cfg.Brackets)
	assertAmount(t, "basicSalary", res.BasicSalary, "3000")
	assertAmount(t, "socialInsuranceAllowance", res.SocialInsuranceAllowance, "0")
	// taxable 10000 - 0 - 5000 = 5000 -> 500 - 210
	assertAmount(t, "estimatedTax", res.EstimatedTax, "290")
	assertAmount(t, "netPay", res.NetPay, "9710")

	in.SocialInsuranceAllowance = decimal.NewNullDecimal(dec("250"))
	res = ProcessRow(in, "Unknown", cfg.MinWages, ins, cfg.Brackets)
	assertAmount(t, "socialInsuranceAllowance override", res.SocialInsuranceAllowance, "250")
}

func TestProcessRowPerformancePayIsNotClamped(t *testing.T) {
	cfg := mustDefaultConfig(t)
	in := EmployeeInput{
		Code:              "GH007",
		Name:              "孙丽",
		TargetGross:       dec("4000"),
		PositionAllowance: decimal.NewNullDecimal(dec("1500")),
		SkillAllowance:    decimal.NewNullDecimal(dec("800")),
	}
	res := Calculate(cfg, "杭州", in)
	if !res.PerformancePay.IsNegative() {
		t.Fatalf("expected negative performance pay, got %s", res.PerformancePay)
	}
	if res.Display["performancePay"][0] != '-' {
		t.Fatalf("expected negative display value, got %q", res.Display["performancePay"])
	}
}

func TestProcessRowTaxableIncomeFloorsAtZero(t *testing.T) {
	cfg := mustDefaultConfig(t)
	res := Calculate(cfg, "杭州", EmployeeInput{Code: "GH008", Name: "周杰", TargetGross: dec("5000")})
	assertAmount(t, "taxableIncome", res.TaxableIncome, "0")
	assertAmount(t, "estimatedTax", res.EstimatedTax, "0")
	assertAmount(t, "netPay", res.NetPay, "4295.74")
}

func TestProcessRowIsIdempotent(t *testing.T) {
	cfg := mustDefaultConfig(t)
	in := EmployeeInput{
		Code:                 "GH009",
		Name:                 "吴敏",
		TargetGross:          dec("15321.45"),
		LatenessDeduction:    decimal.NewNullDecimal(dec("37.5")),
		ContractEndAllowance: decimal.NewNullDecimal(dec("200")),
	}
	ins := ComputeContributions(cfg.Schedules, "嘉兴", in.TargetGross)

	first := ProcessRow(in, "嘉兴", cfg.MinWages, ins, cfg.Brackets)
	second := ProcessRow(in, "嘉兴", cfg.MinWages, ins, cfg.Brackets)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results:\n%+v\n%+v", first, second)
	}
}

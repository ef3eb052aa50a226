package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeContributionsHangzhou(t *testing.T) {
	cfg := mustDefaultConfig(t)
	ins := ComputeContributions(cfg.Schedules, "杭州", dec("10000"))

	if len(ins.Lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(ins.Lines))
	}
	assertAmount(t, "companyBasicTotal", ins.CompanyBasicTotal, "1435.68")
	assertAmount(t, "companyFullTotal", ins.CompanyFullTotal, "3370")
	assertAmount(t, "personalBasicTotal", ins.PersonalBasicTotal, "704.26")
	assertAmount(t, "personalHousing", ins.PersonalHousing, "199")
	assertAmount(t, "personalSocialInsurance", ins.PersonalSocialInsurance(), "505.26")

	pension := ins.Lines[0]
	if pension.Name != "养老保险" {
		t.Fatalf("expected pension first, got %s", pension.Name)
	}
	assertAmount(t, "pension company", pension.CompanyAmount, "769.92")
	assertAmount(t, "pension personal", pension.PersonalAmount, "384.96")
	if pension.CompanyRate != "16.00%" || pension.PersonalRate != "8.00%" {
		t.Fatalf("unexpected rate display %s / %s", pension.CompanyRate, pension.PersonalRate)
	}

	injury := ins.Lines[3]
	// 4812 * 0.002 = 9.624
	assertAmount(t, "injury company", injury.CompanyAmount, "9.62")
}

func TestComputeContributionsJiaxingHousingRoundsToUnit(t *testing.T) {
	cfg := mustDefaultConfig(t)
	ins := ComputeContributions(cfg.Schedules, "嘉兴", dec("8000"))

	var housing *ContributionLine
	for i := range ins.Lines {
		if ins.Lines[i].HousingFundItem {
			housing = &ins.Lines[i]
		}
	}
	if housing == nil {
		t.Fatal("expected a housing fund line")
	}
	// 2260 * 0.08 = 180.8
	assertAmount(t, "housing company", housing.CompanyAmount, "181")
	assertAmount(t, "housing personal", housing.PersonalAmount, "181")
	assertAmount(t, "housing full", housing.CompanyFullPay, "640")
	assertAmount(t, "companyBasicTotal", ins.CompanyBasicTotal, "1417.68")
	assertAmount(t, "personalBasicTotal", ins.PersonalBasicTotal, "686.26")
	assertAmount(t, "personalHousing", ins.PersonalHousing, "181")
}

func TestComputeContributionsTotalsMatchLines(t *testing.T) {
	cfg := mustDefaultConfig(t)
	for _, city := range cfg.Cities() {
		for _, target := range []string{"0", "3333.33", "10000", "48765.43"} {
			ins := ComputeContributions(cfg.Schedules, city, dec(target))
			company, personal, full := decimal.Zero, decimal.Zero, decimal.Zero
			for _, line := range ins.Lines {
				company = company.Add(line.CompanyAmount)
				personal = personal.Add(line.PersonalAmount)
				full = full.Add(line.CompanyFullPay)
				if line.HousingFundItem && !line.CompanyAmount.Equal(line.CompanyAmount.Round(0)) {
					t.Fatalf("%s %s: housing amount %s is not whole", city, target, line.CompanyAmount)
				}
			}
			if !company.Equal(ins.CompanyBasicTotal) || !personal.Equal(ins.PersonalBasicTotal) || !full.Equal(ins.CompanyFullTotal) {
				t.Fatalf("%s %s: totals do not match lines", city, target)
			}
		}
	}
}

func TestComputeContributionsRoundsMidpointsUp(t *testing.T) {
	schedules := CitySchedules{
		"测试": {
			{Name: "失业保险", BaseMin: dec("1"), CompanyRate: dec("0.005"), PersonalRate: dec("0.005")},
			{Name: "住房公积金", BaseMin: dec("1000"), CompanyRate: dec("0.0125"), PersonalRate: dec("0.0125")},
		},
	}
	ins := ComputeContributions(schedules, "测试", dec("100"))
	assertAmount(t, "cents midpoint", ins.Lines[0].CompanyAmount, "0.01")
	assertAmount(t, "unit midpoint", ins.Lines[1].CompanyAmount, "13")
	assertAmount(t, "personalHousing", ins.PersonalHousing, "13")
}

func TestComputeContributionsIgnoresBaseMax(t *testing.T) {
	cfg := mustDefaultConfig(t)
	ins := ComputeContributions(cfg.Schedules, "杭州", dec("100000"))
	// 100000 * 0.16 is above the 24930 cap, which is not applied
	assertAmount(t, "pension full", ins.Lines[0].CompanyFullPay, "16000")
}

func TestHousingFundRecognition(t *testing.T) {
	cases := map[string]bool{
		"住房公积金":          true,
		"补充住房公积金":        true,
		"Housing Fund":   true,
		" housing fund ": true,
		"养老保险":           false,
	}
	for name, want := range cases {
		if got := (InsuranceItem{Name: name}).IsHousingFund(); got != want {
			t.Fatalf("IsHousingFund(%q): expected %v, got %v", name, want, got)
		}
	}
}

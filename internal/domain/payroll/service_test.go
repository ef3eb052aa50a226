package payroll

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestServiceCities(t *testing.T) {
	svc := NewService(mustDefaultConfig(t), 2, "")
	cities := svc.Cities()
	if len(cities) != 2 {
		t.Fatalf("expected 2 cities, got %d", len(cities))
	}
	if cities[1].City != "杭州" || !cities[1].HasWage || cities[1].ItemCount != 6 {
		t.Fatalf("unexpected city info %+v", cities[1])
	}
}

func TestServiceQuote(t *testing.T) {
	svc := NewService(mustDefaultConfig(t), 2, "")
	q := svc.Quote("杭州", dec("10000"))
	if !q.KnownCity || q.TargetGross != "10,000.00" {
		t.Fatalf("unexpected quote %+v", q)
	}
	assertAmount(t, "inferred allowance", q.InferredAllowance, "1934.32")
	assertAmount(t, "employee social", q.SocialInsuranceEmployee, "505.26")

	unknown := svc.Quote("上海", dec("10000"))
	if unknown.KnownCity || len(unknown.Contributions.Lines) != 0 {
		t.Fatalf("unexpected unknown-city quote %+v", unknown)
	}
}

func TestServiceRunAndSingle(t *testing.T) {
	svc := NewService(mustDefaultConfig(t), 2, "")
	id, batch := svc.Run("杭州", []RawRow{validRow("A", "10000")})
	if id == "" || len(batch.Results) != 1 {
		t.Fatalf("unexpected run %q %+v", id, batch)
	}

	res, err := svc.Single("杭州", validRow("B", "10000"))
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	assertAmount(t, "netPay", res.NetPay, "9076.17")

	if _, err := svc.Single("杭州", RawRow{}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
}

func TestWritePayslipPDF(t *testing.T) {
	svc := NewService(mustDefaultConfig(t), 1, "")
	res, err := svc.Single("杭州", RawRow{
		FieldEmployeeCode:      "GH001",
		FieldEmployeeName:      "Zhang Wei",
		FieldTargetGrossSalary: "10000",
	})
	if err != nil {
		t.Fatalf("single: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.WritePayslipPDF(&buf, "Hangzhou", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), res); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}
}

func TestWritePayslipPDFWithoutFontKeepsCJKOut(t *testing.T) {
	svc := NewService(mustDefaultConfig(t), 1, "")
	res, err := svc.Single("杭州", RawRow{
		FieldEmployeeCode:      "GH001",
		FieldEmployeeName:      "张三",
		FieldTargetGrossSalary: "10000",
	})
	if err != nil {
		t.Fatalf("single: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.WritePayslipPDF(&buf, "杭州", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), res); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}
}

func TestPayslipHeader(t *testing.T) {
	cases := []struct {
		name, employeeName, city string
		utf8Font                 bool
		wantEmployee, wantCity   string
		wantLossy                bool
	}{
		{"latin without font", "Zhang Wei", "Hangzhou", false, "Employee: GH001 Zhang Wei", "City: Hangzhou", false},
		{"accents without font", "José", "Jiaxing", false, "Employee: GH001 José", "City: Jiaxing", false},
		{"cjk without font", "张三", "杭州", false, "Employee: GH001", "", true},
		{"cjk name only", "张三", "Hangzhou", false, "Employee: GH001", "City: Hangzhou", true},
		{"cjk with font", "张三", "杭州", true, "Employee: GH001 张三", "City: 杭州", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			employee, city, lossy := payslipHeader("GH001", tc.employeeName, tc.city, tc.utf8Font)
			if employee != tc.wantEmployee || city != tc.wantCity || lossy != tc.wantLossy {
				t.Fatalf("got (%q, %q, %v), want (%q, %q, %v)", employee, city, lossy, tc.wantEmployee, tc.wantCity, tc.wantLossy)
			}
		})
	}
}

func TestServiceReplace(t *testing.T) {
	svc := NewService(mustDefaultConfig(t), 1, "")
	next := &Config{
		Schedules: CitySchedules{},
		MinWages:  MinWageTable{"宁波": dec("2490")},
		Brackets:  DefaultTaxBrackets(),
	}
	svc.Replace(next)
	if svc.Config() != next {
		t.Fatal("expected replaced config")
	}
	if cities := svc.Cities(); len(cities) != 1 || cities[0].City != "宁波" {
		t.Fatalf("unexpected cities %+v", cities)
	}
}

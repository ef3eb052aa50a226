package payroll

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type Service struct {
	cfg      atomic.Pointer[Config]
	workers  int
	fontPath string
}

// NewService wraps an immutable Config. fontPath names an optional UTF-8 TTF
// used for payslips so CJK names render.
func NewService(cfg *Config, workers int, fontPath string) *Service {
	s := &Service{workers: workers, fontPath: fontPath}
	s.cfg.Store(cfg)
	return s
}

// Config returns the current configuration. Callers must not modify it.
func (s *Service) Config() *Config {
	return s.cfg.Load()
}

// Replace swaps in a new configuration. Batches already running keep the
// configuration they started with.
func (s *Service) Replace(cfg *Config) {
	s.cfg.Store(cfg)
}

func (s *Service) Cities() []CityInfo {
	cfg := s.cfg.Load()
	cities := cfg.Cities()
	out := make([]CityInfo, 0, len(cities))
	for _, city := range cities {
		wage, ok := cfg.MinWages[city]
		out = append(out, CityInfo{
			City:      city,
			MinWage:   wage,
			HasWage:   ok,
			ItemCount: len(cfg.Schedules[city]),
		})
	}
	return out
}

func (s *Service) Quote(city string, targetGross decimal.Decimal) Quote {
	cfg := s.cfg.Load()
	ins := ComputeContributions(cfg.Schedules, city, targetGross)
	return Quote{
		City:                    city,
		KnownCity:               cfg.KnownCity(city),
		TargetGross:             FormatMoney(targetGross),
		Contributions:           ins,
		SocialInsuranceEmployee: ins.PersonalSocialInsurance(),
		InferredAllowance:       ins.CompanyFullTotal.Sub(ins.CompanyBasicTotal),
	}
}

// Run validates and computes every row. The returned id tags the run in logs
// and export file names.
func (s *Service) Run(city string, rows []RawRow) (string, BatchResult) {
	return uuid.NewString(), RunBatch(s.cfg.Load(), city, rows, s.workers)
}

// Single computes one already-parsed row.
func (s *Service) Single(city string, raw RawRow) (Result, error) {
	in, err := ParseInput(0, raw)
	if err != nil {
		return Result{}, err
	}
	return Calculate(s.cfg.Load(), city, in), nil
}

// WritePayslipPDF renders one result as an A4 payslip.
func (s *Service) WritePayslipPDF(w io.Writer, city string, period time.Time, res Result) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	if s.fontPath != "" {
		pdf.AddUTF8Font("payslip", "", s.fontPath)
		pdf.AddUTF8Font("payslip", "B", s.fontPath)
		family = "payslip"
	}
	text := func(v string) string { return v }
	employee, cityLine, lossy := payslipHeader(res.EmployeeCode, res.EmployeeName, city, s.fontPath != "")
	if s.fontPath == "" {
		text = pdf.UnicodeTranslatorFromDescriptor("")
		if lossy {
			slog.Warn("payslip name or city needs a UTF-8 font, printing employee code only; set PAYSLIP_FONT_PATH",
				"employeeCode", res.EmployeeCode, "city", city)
		}
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont(family, "", 12)
	pdf.Cell(0, 8, text(employee))
	pdf.Ln(7)
	if cityLine != "" {
		pdf.Cell(0, 8, text(cityLine))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", period.Format("2006-01")))
	pdf.Ln(10)

	lines := []struct {
		label string
		value decimal.Decimal
	}{
		{"Target gross", res.TargetGross},
		{"Basic salary", res.BasicSalary},
		{"Performance pay", res.PerformancePay},
		{"Position allowance", res.PositionAllowance},
		{"Skill allowance", res.SkillAllowance},
		{"Social insurance allowance", res.SocialInsuranceAllowance},
		{"Annual leave prepay", res.AnnualLeavePrepay},
		{"Contract end allowance", res.ContractEndAllowance},
		{"Attendance deduction", res.AttendanceDeduction},
		{"Lateness deduction", res.LatenessDeduction},
		{"Gross income", res.GrossIncome},
		{"Employee social insurance", res.EmployeeSocialInsurance},
		{"Employee housing fund", res.EmployeeHousingFund},
		{"Estimated tax", res.EstimatedTax},
		{"Net pay", res.NetPay},
	}
	for _, line := range lines {
		pdf.CellFormat(90, 7, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, FormatMoney(line.value), "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// payslipHeader builds the employee and city lines. Without a UTF-8 font the
// core fonts only cover Latin-1, so a name or city outside it is left out
// rather than printed as garbage; lossy reports that something was dropped.
func payslipHeader(code, name, city string, utf8Font bool) (employee, cityLine string, lossy bool) {
	employee = fmt.Sprintf("Employee: %s %s", code, name)
	cityLine = fmt.Sprintf("City: %s", city)
	if utf8Font {
		return employee, cityLine, false
	}
	if !latin1(name) {
		employee = fmt.Sprintf("Employee: %s", code)
		lossy = true
	}
	if !latin1(city) {
		cityLine = ""
		lossy = true
	}
	return employee, cityLine, lossy
}

func latin1(s string) bool {
	for _, r := range s {
		if r > unicode.MaxLatin1 {
			return false
		}
	}
	return true
}

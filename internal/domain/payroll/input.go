package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EmployeeInput is one validated batch row. Optional overrides are invalid
// when the row left them empty; see the Effective* methods for defaults.
type EmployeeInput struct {
	Code        string
	Name        string
	TargetGross decimal.Decimal

	AttendanceDeduction      decimal.NullDecimal
	LatenessDeduction        decimal.NullDecimal
	AnnualLeavePrepay        decimal.NullDecimal
	PositionAllowance        decimal.NullDecimal
	SkillAllowance           decimal.NullDecimal
	ContractEndAllowance     decimal.NullDecimal
	SocialInsuranceAllowance decimal.NullDecimal
}

func orDefault(v decimal.NullDecimal, def decimal.Decimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return def
}

func (in EmployeeInput) EffectiveAttendanceDeduction() decimal.Decimal {
	return orDefault(in.AttendanceDeduction, decimal.Zero)
}

func (in EmployeeInput) EffectiveLatenessDeduction() decimal.Decimal {
	return orDefault(in.LatenessDeduction, decimal.Zero)
}

// EffectiveAnnualLeavePrepay defaults to 500.
func (in EmployeeInput) EffectiveAnnualLeavePrepay() decimal.Decimal {
	return orDefault(in.AnnualLeavePrepay, decimal.NewFromInt(DefaultAnnualLeavePrepay))
}

func (in EmployeeInput) EffectivePositionAllowance() decimal.Decimal {
	return orDefault(in.PositionAllowance, decimal.Zero)
}

func (in EmployeeInput) EffectiveSkillAllowance() decimal.Decimal {
	return orDefault(in.SkillAllowance, decimal.Zero)
}

func (in EmployeeInput) EffectiveContractEndAllowance() decimal.Decimal {
	return orDefault(in.ContractEndAllowance, decimal.Zero)
}

// SocialInsuranceOverride returns the explicit allowance, or false when the row
// left it empty or zero and the allowance must be inferred.
func (in EmployeeInput) SocialInsuranceOverride() (decimal.Decimal, bool) {
	if !in.SocialInsuranceAllowance.Valid || in.SocialInsuranceAllowance.Decimal.IsZero() {
		return decimal.Zero, false
	}
	return in.SocialInsuranceAllowance.Decimal, true
}

// RawRow is one input row as cell text keyed by canonical field name.
type RawRow map[string]string

// headerAliases maps the import template's column titles to field names.
var headerAliases = map[string]string{
	"员工工号":    FieldEmployeeCode,
	"员工姓名":    FieldEmployeeName,
	"税前薪资总额":  FieldTargetGrossSalary,
	"考勤扣款":    FieldAttendanceDeduction,
	"迟到扣款":    FieldLatenessDeduction,
	"年休假预发补贴": FieldAnnualLeavePrepayAllowance,
	"职务补贴":    FieldPositionAllowance,
	"技能补贴":    FieldSkillAllowance,
	"合同到期补贴":  FieldContractEndAllowance,
	"社保补贴":    FieldSocialInsuranceAllowance,
}

// CanonicalField resolves a column header to a field name. Unknown headers are
// lower-cased and returned with spaces replaced by underscores.
func CanonicalField(header string) string {
	header = strings.TrimSpace(header)
	if field, ok := headerAliases[header]; ok {
		return field
	}
	return strings.ReplaceAll(strings.ToLower(header), " ", "_")
}

// TemplateHeaders lists the import columns in template order.
func TemplateHeaders() []string {
	return []string{
		"员工工号", "员工姓名", "税前薪资总额", "考勤扣款", "迟到扣款",
		"年休假预发补贴", "职务补贴", "技能补贴", "合同到期补贴", "社保补贴",
	}
}

// ParseInput validates a raw row. index is the zero-based position used in
// any returned *RowError.
func ParseInput(index int, raw RawRow) (EmployeeInput, error) {
	code := strings.TrimSpace(raw[FieldEmployeeCode])
	in := EmployeeInput{
		Code: code,
		Name: strings.TrimSpace(raw[FieldEmployeeName]),
	}
	fail := func(field, kind string, err error) (EmployeeInput, error) {
		return EmployeeInput{}, &RowError{Row: index, EmployeeCode: code, Kind: kind, Field: field, Err: err}
	}

	if code == "" {
		return fail(FieldEmployeeCode, ErrorKindMissingField, ErrMissingField)
	}
	if in.Name == "" {
		return fail(FieldEmployeeName, ErrorKindMissingField, ErrMissingField)
	}

	target, present, err := parseAmount(raw[FieldTargetGrossSalary])
	if err != nil {
		return fail(FieldTargetGrossSalary, ErrorKindInvalidNumber, err)
	}
	if !present {
		return fail(FieldTargetGrossSalary, ErrorKindMissingField, ErrMissingField)
	}
	if target.IsNegative() {
		return fail(FieldTargetGrossSalary, ErrorKindInvalidNumber, fmt.Errorf("%w: must not be negative", ErrInvalidNumber))
	}
	in.TargetGross = target

	optional := []struct {
		field string
		dst   *decimal.NullDecimal
	}{
		{FieldAttendanceDeduction, &in.AttendanceDeduction},
		{FieldLatenessDeduction, &in.LatenessDeduction},
		{FieldAnnualLeavePrepayAllowance, &in.AnnualLeavePrepay},
		{FieldPositionAllowance, &in.PositionAllowance},
		{FieldSkillAllowance, &in.SkillAllowance},
		{FieldContractEndAllowance, &in.ContractEndAllowance},
		{FieldSocialInsuranceAllowance, &in.SocialInsuranceAllowance},
	}
	for _, opt := range optional {
		v, present, err := parseAmount(raw[opt.field])
		if err != nil {
			return fail(opt.field, ErrorKindInvalidNumber, err)
		}
		if present {
			*opt.dst = decimal.NewNullDecimal(v)
		}
	}
	return in, nil
}

// parseAmount accepts plain or thousands-grouped decimals, with an optional
// leading currency sign. Blank cells report present=false.
func parseAmount(raw string) (decimal.Decimal, bool, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "¥")
	s = strings.TrimPrefix(s, "￥")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, true, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return v, true, nil
}

package payroll

const (
	HousingFundName  = "住房公积金"
	HousingFundAlias = "housing fund"

	// DefaultBasicSalary applies when the city has no configured minimum wage.
	DefaultBasicSalary = 3000
	// StandardDeduction is the monthly tax-free threshold.
	StandardDeduction = 5000
	// DefaultAnnualLeavePrepay applies when the input row leaves the allowance empty.
	DefaultAnnualLeavePrepay = 500

	WarningUnknownCity = "unknown_city"
	WarningNegativePay = "negative_performance_pay"

	ErrorKindMissingField  = "missing_field"
	ErrorKindInvalidNumber = "invalid_number"
)

const (
	FieldEmployeeCode               = "employee_code"
	FieldEmployeeName               = "employee_name"
	FieldTargetGrossSalary          = "target_gross_salary"
	FieldAttendanceDeduction        = "attendance_deduction"
	FieldLatenessDeduction          = "lateness_deduction"
	FieldAnnualLeavePrepayAllowance = "annual_leave_prepay_allowance"
	FieldPositionAllowance          = "position_allowance"
	FieldSkillAllowance             = "skill_allowance"
	FieldContractEndAllowance       = "contract_end_allowance"
	FieldSocialInsuranceAllowance   = "social_insurance_allowance"
)

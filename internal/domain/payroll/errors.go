package payroll

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingField  = errors.New("required field is missing")
	ErrInvalidNumber = errors.New("field is not a valid number")
	ErrUnknownCity   = errors.New("city has no insurance schedule")
)

// RowError records why one input row was excluded from a batch. Row is the
// zero-based index among data rows; Error reports it one-based, the way the
// row appears under the header in the uploaded sheet.
type RowError struct {
	Row          int    `json:"row"`
	EmployeeCode string `json:"employeeCode,omitempty"`
	Kind         string `json:"kind"`
	Field        string `json:"field"`
	Err          error  `json:"-"`
}

func (e *RowError) Error() string {
	if e.EmployeeCode != "" {
		return fmt.Sprintf("row %d (%s): %s: %v", e.Row+1, e.EmployeeCode, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %s: %v", e.Row+1, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func (e *RowError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// MarshalJSON adds the underlying reason as "message".
func (e *RowError) MarshalJSON() ([]byte, error) {
	type rowError RowError
	return json.Marshal(struct {
		*rowError
		Message string `json:"message"`
	}{(*rowError)(e), e.Message()})
}

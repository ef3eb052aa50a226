package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"xinan/internal/domain/payroll"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	ResultSheet   = "薪资拆分"
	ErrorSheet    = "错误行"
	TemplateSheet = "员工薪资"

	moneyNumFmt = 4 // #,##0.00

	utf8BOM = "\ufeff"
)

var (
	ErrNoHeader          = errors.New("spreadsheet has no header row")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// DetectFormat picks the format from a file name, then from a content type.
// It defaults to xlsx.
func DetectFormat(filename, contentType string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	if strings.Contains(contentType, "csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// ReadRows reads the first sheet (or the whole CSV) into raw rows keyed by
// canonical field name. Fully blank lines are skipped.
func ReadRows(r io.Reader, format Format) ([]payroll.RawRow, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return toRawRows(records)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	// stored values, not display text: a number format must not round money
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

func toRawRows(records [][]string) ([]payroll.RawRow, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = payroll.CanonicalField(h)
	}

	out := make([]payroll.RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make(payroll.RawRow, len(headers))
		for i, field := range headers {
			if field == "" || i >= len(record) {
				continue
			}
			row[field] = strings.TrimSpace(record[i])
		}
		out = append(out, row)
	}
	return out, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// WriteResults renders a batch as a workbook: one sheet of results in column
// order and, when any row failed, a second sheet listing the failures.
func WriteResults(w io.Writer, batch payroll.BatchResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ResultSheet); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		return err
	}

	titles := make([]any, len(payroll.Columns))
	for i, col := range payroll.Columns {
		titles[i] = col.Title
	}
	if err := writeRow(f, ResultSheet, 1, titles); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(payroll.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(ResultSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, res := range batch.Results {
		amounts := res.Amounts()
		values := make([]any, len(payroll.Columns))
		for c, col := range payroll.Columns {
			switch col.Key {
			case "employeeCode":
				values[c] = res.EmployeeCode
			case "employeeName":
				values[c] = res.EmployeeName
			default:
				values[c] = payroll.HalfUpCents(amounts[col.Key]).InexactFloat64()
			}
		}
		if err := writeRow(f, ResultSheet, i+2, values); err != nil {
			return err
		}
	}
	if len(batch.Results) > 0 {
		end := fmt.Sprintf("%s%d", lastCol, len(batch.Results)+1)
		if err := f.SetCellStyle(ResultSheet, "C2", end, moneyStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(ResultSheet, "A", lastCol, 14); err != nil {
		return err
	}

	if len(batch.Errors) > 0 {
		if err := writeErrors(f, batch.Errors, headerStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeErrors(f *excelize.File, rowErrors []*payroll.RowError, headerStyle int) error {
	if _, err := f.NewSheet(ErrorSheet); err != nil {
		return err
	}
	if err := writeRow(f, ErrorSheet, 1, []any{"数据行", "员工工号", "字段", "错误类型", "错误信息"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(ErrorSheet, "A1", "E1", headerStyle); err != nil {
		return err
	}
	for i, e := range rowErrors {
		values := []any{e.Row + 1, e.EmployeeCode, e.Field, e.Kind, e.Message()}
		if err := writeRow(f, ErrorSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

// WriteTemplate renders an empty import workbook with one sample row.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return err
	}
	headers := payroll.TemplateHeaders()
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, TemplateSheet, 1, values); err != nil {
		return err
	}
	sample := []any{"GH001", "张三", 10000, 0, 0, 500, 0, 0, 0, nil}
	if err := writeRow(f, TemplateSheet, 2, sample); err != nil {
		return err
	}
	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

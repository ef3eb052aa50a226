package payroll

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

// BatchResult holds the successful rows in input order and the rows that
// failed validation.
type BatchResult struct {
	City     string      `json:"city"`
	Results  []Result    `json:"results"`
	Errors   []*RowError `json:"errors"`
	Warnings []string    `json:"warnings"`
}

type rowOutcome struct {
	result Result
	err    *RowError
}

// RunBatch processes every row against cfg. Rows are independent and run on
// up to workers goroutines; a failing row never stops the others.
func RunBatch(cfg *Config, city string, rows []RawRow, workers int) BatchResult {
	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]rowOutcome, len(rows))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, raw := range rows {
		i, raw := i, raw
		g.Go(func() error {
			outcomes[i] = processRaw(cfg, city, i, raw)
			return nil
		})
	}
	_ = g.Wait()

	batch := BatchResult{
		City:     city,
		Results:  make([]Result, 0, len(rows)),
		Errors:   []*RowError{},
		Warnings: []string{},
	}
	if !cfg.KnownCity(city) {
		batch.Warnings = append(batch.Warnings, WarningUnknownCity)
	}
	negative := false
	for _, o := range outcomes {
		if o.err != nil {
			batch.Errors = append(batch.Errors, o.err)
			continue
		}
		if o.result.PerformancePay.IsNegative() {
			negative = true
		}
		batch.Results = append(batch.Results, o.result)
	}
	if negative {
		batch.Warnings = append(batch.Warnings, WarningNegativePay)
	}
	return batch
}

func processRaw(cfg *Config, city string, index int, raw RawRow) rowOutcome {
	in, err := ParseInput(index, raw)
	if err != nil {
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			return rowOutcome{err: rowErr}
		}
		return rowOutcome{err: &RowError{Row: index, Kind: ErrorKindInvalidNumber, Err: err}}
	}
	return rowOutcome{result: Calculate(cfg, city, in)}
}

// Calculate runs the insurance and row derivation for one validated input.
func Calculate(cfg *Config, city string, in EmployeeInput) Result {
	ins := ComputeContributions(cfg.Schedules, city, in.TargetGross)
	return ProcessRow(in, city, cfg.MinWages, ins, cfg.Brackets)
}

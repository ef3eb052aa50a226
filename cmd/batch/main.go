package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"xinan/internal/domain/payroll"
	"xinan/internal/platform/config"
	"xinan/internal/platform/spreadsheet"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	envCfg := config.Load()

	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	in := fs.String("in", "", "input workbook (.xlsx) or .csv")
	out := fs.String("out", "", "output .xlsx path; JSON to stdout when empty")
	city := fs.String("city", envCfg.DefaultCity, "city whose schedule applies to every row")
	schedules := fs.String("config", envCfg.InsuranceConfigFile, "YAML insurance schedule file")
	workers := fs.Int("workers", envCfg.BatchWorkers, "rows processed concurrently")
	strict := fs.Bool("strict-city", false, "fail instead of falling back when the city has no schedule")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: batch -in salaries.xlsx [-out result.xlsx] [-city 杭州]")
		return 2
	}

	cfg, err := loadConfig(*schedules)
	if err != nil {
		slog.Error("load schedules failed", "err", err)
		return 1
	}
	if *strict {
		if err := cfg.RequireCity(*city); err != nil {
			slog.Error("strict city check failed", "err", err)
			return 1
		}
	}

	f, err := os.Open(*in)
	if err != nil {
		slog.Error("open input failed", "err", err)
		return 1
	}
	defer f.Close()
	rows, err := spreadsheet.ReadRows(f, spreadsheet.DetectFormat(*in, ""))
	if err != nil {
		slog.Error("read input failed", "path", *in, "err", err)
		return 1
	}

	batch := payroll.RunBatch(cfg, *city, rows, *workers)
	for _, w := range batch.Warnings {
		slog.Warn("batch warning", "warning", w, "city", *city)
	}
	for _, e := range batch.Errors {
		fmt.Fprintf(os.Stderr, "skipped %v\n", e)
	}

	if err := writeOutput(*out, batch); err != nil {
		slog.Error("write output failed", "err", err)
		return 1
	}
	summary := batch.Summarize()
	slog.Info("batch finished", "rows", summary.RowsTotal, "failed", summary.RowsFailed, "totalNet", summary.TotalNet.StringFixed(2))
	return 0
}

func loadConfig(path string) (*payroll.Config, error) {
	if path == "" {
		return payroll.DefaultConfig()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return payroll.LoadConfig(f)
}

func writeOutput(path string, batch payroll.BatchResult) error {
	if path == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			payroll.BatchResult
			Summary payroll.BatchSummary `json:"summary"`
		}{batch, batch.Summarize()})
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return fmt.Errorf("output must be .xlsx, got %s", ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := spreadsheet.WriteResults(f, batch); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

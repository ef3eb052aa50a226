package main

import (
	"os"
	"path/filepath"
	"testing"

	"xinan/internal/platform/spreadsheet"
)

func TestRunWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "salaries.csv")
	csv := "员工工号,员工姓名,税前薪资总额\nGH001,张伟,10000\n,缺工号,9000\n"
	if err := os.WriteFile(in, []byte(csv), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "result.xlsx")

	if code := run([]string{"-in", in, "-out", out, "-city", "杭州"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	rows, err := spreadsheet.ReadRows(f, spreadsheet.FormatXLSX)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one result row, got %d", len(rows))
	}
}

func TestRunRequiresInput(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Fatalf("expected usage exit 2, got %d", code)
	}
	if code := run([]string{"-in", filepath.Join(t.TempDir(), "missing.xlsx")}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if code := run([]string{"-in", "unused.csv", "-city", "上海", "-strict-city"}); code != 1 {
		t.Fatalf("expected strict city failure, got %d", code)
	}
}

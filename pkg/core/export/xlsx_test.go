package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"financial_catalog/pkg/core/merge"
)

func sampleCatalogs(t *testing.T) map[merge.StatementType]*merge.UnifiedCatalog {
	t.Helper()
	stmt := func(year string, rev, cogs float64) *merge.StructuredStatement {
		return &merge.StructuredStatement{
			Periods: []string{year},
			Sections: []merge.Section{
				{Label: "Revenue", Items: []merge.LineItem{
					{GAAP: "us-gaap:Revenues", Label: "Total net sales", Values: map[string]merge.Value{year: merge.NumberValue(rev)}},
				}},
				{Label: "Costs", Items: []merge.LineItem{
					{Label: "Cost of sales", Values: map[string]merge.Value{year: merge.NumberValue(cogs)}},
				}},
			},
		}
	}
	set := &merge.FilingSet{Ticker: "AAPL", Filings: []merge.Filing{
		{Period: "2023-09-30", Statements: map[merge.StatementType]*merge.StatementResult{merge.IncomeStatement: {Statement: stmt("2023", 383285, -214137)}}},
		{Period: "2024-09-28", Statements: map[merge.StatementType]*merge.StatementResult{merge.IncomeStatement: {Statement: stmt("2024", 391035, -210352)}}},
	}}
	cats, err := merge.NewMerger(merge.DefaultConfig(), nil).BuildAll(set)
	if err != nil {
		t.Fatalf("BuildAll failed: %v", err)
	}
	return cats
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, "AAPL", sampleCatalogs(t)); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != "Income Statement" || sheets[2] != "Cash Flow Statement" {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := f.GetRows("Income Statement")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "AAPL" || rows[0][1] != "2024" || rows[0][2] != "2023" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Revenue" || rows[3][0] != "Costs" {
		t.Errorf("section rows = %q, %q", rows[1][0], rows[3][0])
	}

	raw, err := f.GetCellValue("Income Statement", "B3", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatal(err)
	}
	if raw != "391035" {
		t.Errorf("B3 = %q, want 391035", raw)
	}

	bs, err := f.GetRows("Balance Sheet")
	if err != nil {
		t.Fatal(err)
	}
	if len(bs) != 1 {
		t.Errorf("empty statement should only have a header row, got %v", bs)
	}
}

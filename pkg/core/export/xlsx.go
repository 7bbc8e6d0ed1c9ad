// Package export writes unified catalogs to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"financial_catalog/pkg/core/merge"
)

// SheetNames are the worksheet titles per statement type.
var SheetNames = map[merge.StatementType]string{
	merge.IncomeStatement:   "Income Statement",
	merge.BalanceSheet:      "Balance Sheet",
	merge.CashFlowStatement: "Cash Flow Statement",
}

// WriteWorkbook writes one worksheet per statement type: a header row of years
// (newest first), then each section label as a bold row followed by its items.
// Statement types without items get a sheet with the header only.
func WriteWorkbook(w io.Writer, ticker string, catalogs map[merge.StatementType]*merge.UnifiedCatalog) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create section style: %w", err)
	}
	// #,##0 with negatives in parentheses
	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: 37})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	first := true
	for _, st := range merge.StatementTypes {
		name := SheetNames[st]
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}

		cat := catalogs[st]
		if cat == nil {
			cat = merge.NewUnifiedCatalog(st)
		}
		if err := writeSheet(f, name, ticker, cat, headerStyle, sectionStyle, numberStyle); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet, ticker string, cat *merge.UnifiedCatalog, headerStyle, sectionStyle, numberStyle int) error {
	years := cat.PeriodsDescending()

	header := make([]any, 0, len(years)+1)
	header = append(header, ticker)
	for _, y := range years {
		header = append(header, y)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, sec := range cat.Sections() {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, sec.Label); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, sectionStyle); err != nil {
			return err
		}
		row++

		for _, it := range sec.Items {
			values := make([]any, 0, len(years)+1)
			values = append(values, "  "+it.ItemLabel)
			for _, y := range years {
				if v := it.Values[y]; v != nil {
					values = append(values, *v)
				} else {
					values = append(values, nil)
				}
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return err
			}
			if len(years) > 0 {
				from, _ := excelize.CoordinatesToCellName(2, row)
				to, _ := excelize.CoordinatesToCellName(len(years)+1, row)
				if err := f.SetCellStyle(sheet, from, to, numberStyle); err != nil {
					return err
				}
			}
			row++
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 55); err != nil {
		return err
	}
	if len(years) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(years) + 1)
		if err := f.SetColWidth(sheet, "B", lastCol, 15); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, XSplit: 1, YSplit: 1, TopLeftCell: "B2", ActivePane: "bottomRight"})
}

package converter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nconklindev/censo/internal/engine"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// ExportOptions controls how a normalized table is written.
type ExportOptions struct {
	Sheet     string
	Highlight bool
}

// WriteXLSX writes the table as a one-sheet workbook: canonical header row,
// then one row per source row. Invalid cells are filled red when Highlight
// is set.
func WriteXLSX(w io.Writer, table *engine.NormalizedTable, report engine.ValidationResult, opts ExportOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if opts.Sheet != "" && opts.Sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, opts.Sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
		sheet = opts.Sheet
	}

	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if len(table.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range table.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	for i := range table.Columns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, colName, colName, 18)
	}

	if opts.Highlight && report.Count() > 0 {
		invalidStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Color: "#9C0006"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		})
		if err != nil {
			return err
		}
		for _, ref := range report.Invalid {
			col := table.Column(ref.Field)
			if col < 0 {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, ref.Row+2)
			if err := f.SetCellStyle(sheet, cell, cell, invalidStyle); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// WriteCSV writes the table as CSV, header row first.
func WriteCSV(w io.Writer, table *engine.NormalizedTable) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(table.Strings()); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}
